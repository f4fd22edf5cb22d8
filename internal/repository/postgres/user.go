package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, username, first_name, last_name, password, role, created_at`

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, nu repository.NewUser) (*models.User, error) {
	role := nu.Role
	if role == "" {
		role = models.RoleUser
	}

	query := `
		INSERT INTO users (email, username, first_name, last_name, password, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query,
		nu.Email, nu.Username, nu.FirstName, nu.LastName, nu.PasswordHash, string(role),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail is the login lookup. Email matching is exact.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetAdminByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND role = $2`

	u, err := scanUser(s.db.QueryRow(ctx, query, username, string(models.RoleAdmin)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
