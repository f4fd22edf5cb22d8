package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
	"github.com/jackc/pgx/v5"
)

type ChatStore struct {
	db DBTX
}

func NewChatStore(db DBTX) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) ListByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	query := `
		SELECT id, chat_id, user_id, title, created_at
		FROM chats
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]models.Chat, 0)
	for rows.Next() {
		var ch models.Chat
		if err := rows.Scan(&ch.ID, &ch.ChatID, &ch.UserID, &ch.Title, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

// Create relies on the unique index on chat_id: of two concurrent creates
// with the same id exactly one succeeds.
func (s *ChatStore) Create(ctx context.Context, userID int64, chatID, title string, createdAt time.Time) (*models.Chat, error) {
	query := `
		INSERT INTO chats (chat_id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, chat_id, user_id, title, created_at`

	var ch models.Chat
	err := s.db.QueryRow(ctx, query, chatID, userID, title, createdAt).Scan(
		&ch.ID, &ch.ChatID, &ch.UserID, &ch.Title, &ch.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return &ch, nil
}

func (s *ChatStore) GetOwned(ctx context.Context, userID int64, chatID string) (*models.Chat, error) {
	query := `
		SELECT id, chat_id, user_id, title, created_at
		FROM chats
		WHERE chat_id = $1 AND user_id = $2`

	var ch models.Chat
	err := s.db.QueryRow(ctx, query, chatID, userID).Scan(
		&ch.ID, &ch.ChatID, &ch.UserID, &ch.Title, &ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &ch, nil
}

func (s *ChatStore) UpdateTitle(ctx context.Context, userID int64, chatID, title string) (*models.Chat, error) {
	query := `
		UPDATE chats SET title = $1
		WHERE chat_id = $2 AND user_id = $3
		RETURNING id, chat_id, user_id, title, created_at`

	var ch models.Chat
	err := s.db.QueryRow(ctx, query, title, chatID, userID).Scan(
		&ch.ID, &ch.ChatID, &ch.UserID, &ch.Title, &ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update chat title: %w", err)
	}
	return &ch, nil
}

// Delete removes the chat row and its messages in one transaction.
//
// The messages table has no foreign key to chats, so the cascade is
// done here:
//   - The chat delete is scoped by owner. Zero affected rows means the
//     chat does not exist or belongs to someone else; both are
//     ErrNotFound, and the transaction is rolled back before any message
//     is touched.
//   - Messages are deleted by chat_id only. chat_id is globally unique,
//     so once the owned chat row is gone every message under that id
//     belongs to it.
//   - Every error path rolls back explicitly. A client never observes a
//     chat without messages or messages without a chat.
func (s *ChatStore) Delete(ctx context.Context, userID int64, chatID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete chat: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM chats WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return repository.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete chat messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete chat: %w", err)
	}
	return nil
}
