package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/auth"
	"github.com/barysai/barysai/internal/config"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
	"github.com/barysai/barysai/internal/session"
	"go.uber.org/zap"
)

// AuthService registers users, checks credentials and issues session
// tokens.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenService
	revoker session.Revoker
	admin   config.AdminConfig
	logger  *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	revoker session.Revoker,
	admin config.AdminConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		admin:   admin,
		logger:  logger,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a regular user and returns a token for them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, "", ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("check existing user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, repository.NewUser{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AdminLogin authenticates the bootstrap admin by username. Only the
// configured admin username is accepted.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*models.User, string, error) {
	if username != s.admin.Username {
		return nil, "", ErrInvalidCredentials
	}

	if _, err := s.EnsureAdmin(ctx); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find admin: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("admin login rejected", zap.String("username", username))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// EnsureAdmin creates the bootstrap admin account when it is missing.
// It runs once at startup and again before every admin login.
func (s *AuthService) EnsureAdmin(ctx context.Context) (*models.User, error) {
	existing, err := s.users.GetAdminByUsername(ctx, s.admin.Username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find admin: %w", err)
	}

	hash, err := auth.HashPassword(s.admin.DefaultPassword)
	if err != nil {
		return nil, err
	}

	username := s.admin.Username
	admin, err := s.users.Create(ctx, repository.NewUser{
		Email:        s.admin.Email,
		Username:     &username,
		FirstName:    "Admin",
		LastName:     "User",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance may have seeded it first.
			seeded, lookupErr := s.users.GetAdminByUsername(ctx, s.admin.Username)
			if lookupErr != nil {
				return nil, fmt.Errorf("seed admin: %s is taken by another account", s.admin.Email)
			}
			return seeded, nil
		}
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info("seeded admin user", zap.String("username", username), zap.String("email", admin.Email))
	return admin, nil
}

// CurrentUser returns nil for guests and for sessions whose user row no
// longer exists.
func (s *AuthService) CurrentUser(ctx context.Context, id auth.Identity) (*models.User, error) {
	if id.IsGuest() {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, id.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return user, nil
}

// Logout revokes the token until its natural expiry. Tokens that no
// longer parse are already useless and are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	expiresAt := time.Now().Add(s.tokens.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.revoker.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// TokenTTL is the session cookie lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
