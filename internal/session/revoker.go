// Package session tracks revoked session tokens.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker blacklists tokens until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisRevoker stores sha256(token) under jwt:blacklist:<hash>. Raw tokens
// never reach Redis.
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, blacklistKey(token)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check revoked token: %w", err)
	}
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:blacklist:" + hex.EncodeToString(sum[:])
}

// NopRevoker is used when Redis is not configured. Logout then only
// clears the cookie and the token stays valid until it expires.
type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
