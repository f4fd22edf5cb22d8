package repository

import (
	"context"
	"errors"
	"time"

	"github.com/barysai/barysai/internal/models"
)

var (
	// ErrNotFound means the row does not exist or is not owned by the caller.
	// A foreign chat looks exactly like a missing one.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is a unique constraint violation (email, username, chat_id).
	ErrDuplicate = errors.New("already exists")
)

// NewUser holds the fields a caller supplies when creating a user.
type NewUser struct {
	Email        string
	Username     *string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         models.Role
}

// UserRepository is the credential store.
type UserRepository interface {
	// Create returns ErrDuplicate when the email or username is taken.
	Create(ctx context.Context, u NewUser) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetAdminByUsername only matches users holding the admin role.
	GetAdminByUsername(ctx context.Context, username string) (*models.User, error)
}

// ChatRepository scopes every read and write by owner. A chat_id owned by
// someone else behaves as if it did not exist.
type ChatRepository interface {
	// ListByUser returns the owner's chats, newest first. Never nil.
	ListByUser(ctx context.Context, userID int64) ([]models.Chat, error)

	// Create never overwrites: an existing chat_id (any owner) yields
	// ErrDuplicate.
	Create(ctx context.Context, userID int64, chatID, title string, createdAt time.Time) (*models.Chat, error)

	GetOwned(ctx context.Context, userID int64, chatID string) (*models.Chat, error)
	UpdateTitle(ctx context.Context, userID int64, chatID, title string) (*models.Chat, error)

	// Delete removes the chat and all of its messages atomically.
	Delete(ctx context.Context, userID int64, chatID string) error
}

// MessageRepository does not check chat ownership; callers do that first.
type MessageRepository interface {
	Create(ctx context.Context, userID int64, chatID string, sender models.Sender, text string, createdAt time.Time) (*models.Message, error)

	// ListByChat returns messages oldest first. Never nil.
	ListByChat(ctx context.Context, chatID string) ([]models.Message, error)
}

// QueryStatRepository records user-authored message texts for the admin
// dashboard.
type QueryStatRepository interface {
	Record(ctx context.Context, userID int64, chatID, queryText string) error
}

// StatsRepository computes the admin aggregates. Admin users are excluded
// from every user count.
type StatsRepository interface {
	Usage(ctx context.Context, since time.Time) (*models.UsageStats, error)
	UserActivity(ctx context.Context) ([]models.UserActivity, error)
	Registrations(ctx context.Context, since time.Time) ([]models.DailyRegistrations, error)
}
