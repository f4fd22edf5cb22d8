package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the payload of a session token.
//
// Role is advisory: routes that need an authoritative role re-read it
// from the users table (see middleware.Options.ConfirmUser).
type Claims struct {
	UserID int64       `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
//
// HS256 (one shared secret) fits a single service that both signs and
// verifies; nothing else needs to validate these tokens, so there is no
// public key to distribute. Parse pins the method to HMAC, which shuts
// out "alg: none" and RS/HS confusion tokens.
//
// Each token carries a random jti. Logout revokes by token hash, so two
// logins in the same second must still produce different tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime of every issued token; the session cookie uses it
// as Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for the user. Each token carries a random jti
// so that a single token can be revoked.
func (s *TokenService) Generate(user *models.User) (string, error) {
	now := s.now()

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
// It returns ErrExpiredToken or ErrInvalidToken, never a library error.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
