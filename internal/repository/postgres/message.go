package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/jackc/pgx/v5"
)

type MessageStore struct {
	db DBTX
}

func NewMessageStore(db DBTX) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, userID int64, chatID string, sender models.Sender, text string, createdAt time.Time) (*models.Message, error) {
	query := `
		INSERT INTO messages (chat_id, user_id, sender, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, chat_id, user_id, sender, text, created_at`

	msg, err := scanMessage(s.db.QueryRow(ctx, query, chatID, userID, string(sender), text, createdAt))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// ListByChat orders by created_at and breaks ties by id so that messages
// sharing a client timestamp keep insertion order.
func (s *MessageStore) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := `
		SELECT id, chat_id, user_id, sender, text, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var (
		msg    models.Message
		sender string
	)
	if err := row.Scan(&msg.ID, &msg.ChatID, &msg.UserID, &sender, &msg.Text, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.Sender = models.Sender(sender)
	return &msg, nil
}
