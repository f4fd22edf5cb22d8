package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/auth"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/observ"
	"github.com/barysai/barysai/internal/repository"
	"go.uber.org/zap"
)

// ChatService owns chats and their messages. Guests never reach the
// repositories: their creates are echoed back and everything else is
// reported as not found.
type ChatService struct {
	chats      repository.ChatRepository
	messages   repository.MessageRepository
	queryStats repository.QueryStatRepository
	metrics    *observ.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	queryStats repository.QueryStatRepository,
	metrics *observ.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chats:      chats,
		messages:   messages,
		queryStats: queryStats,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ChatService) ListChats(ctx context.Context, id auth.Identity) ([]models.Chat, error) {
	if id.IsGuest() {
		return []models.Chat{}, nil
	}
	return s.chats.ListByUser(ctx, id.UserID())
}

// CreateChat stores a chat under the client-chosen chatID. ts is the
// client's creation time; nil means now.
func (s *ChatService) CreateChat(ctx context.Context, id auth.Identity, chatID, title string, ts *time.Time) (*models.Chat, error) {
	if id.IsGuest() {
		chat := s.GuestChat(chatID, title, ts)
		return &chat, nil
	}

	chat, err := s.chats.Create(ctx, id.UserID(), chatID, title, s.timestamp(ts))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChatExists
		}
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) UpdateTitle(ctx context.Context, id auth.Identity, chatID, title string) (*models.Chat, error) {
	if id.IsGuest() {
		return nil, ErrChatNotFound
	}

	chat, err := s.chats.UpdateTitle(ctx, id.UserID(), chatID, title)
	if err != nil {
		return nil, notFoundAsChat(err)
	}
	return chat, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, id auth.Identity, chatID string) error {
	if id.IsGuest() {
		return ErrChatNotFound
	}

	if err := s.chats.Delete(ctx, id.UserID(), chatID); err != nil {
		return notFoundAsChat(err)
	}
	s.logger.Debug("chat deleted", zap.Int64("user_id", id.UserID()), zap.String("chat_id", chatID))
	return nil
}

func (s *ChatService) ListMessages(ctx context.Context, id auth.Identity, chatID string) ([]models.Message, error) {
	if id.IsGuest() {
		return nil, ErrChatNotFound
	}

	if _, err := s.chats.GetOwned(ctx, id.UserID(), chatID); err != nil {
		return nil, notFoundAsChat(err)
	}
	return s.messages.ListByChat(ctx, chatID)
}

// AppendMessage adds a message to an owned chat. User-authored messages
// are also recorded in query_stats; that write never fails the request.
func (s *ChatService) AppendMessage(ctx context.Context, id auth.Identity, chatID string, sender models.Sender, text string, ts *time.Time) (*models.Message, error) {
	if id.IsGuest() {
		msg := s.GuestMessage(sender, text, ts)
		return &msg, nil
	}

	if _, err := s.chats.GetOwned(ctx, id.UserID(), chatID); err != nil {
		return nil, notFoundAsChat(err)
	}

	msg, err := s.messages.Create(ctx, id.UserID(), chatID, sender, text, s.timestamp(ts))
	if err != nil {
		return nil, err
	}

	if sender == models.SenderUser {
		s.recordQuery(ctx, id.UserID(), chatID, text)
	}
	return msg, nil
}

func (s *ChatService) recordQuery(ctx context.Context, userID int64, chatID, text string) {
	if err := s.queryStats.Record(ctx, userID, chatID, text); err != nil {
		s.metrics.QueryStatFailures.Inc()
		s.logger.Warn("failed to record query stat",
			zap.Int64("user_id", userID),
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// GuestChat builds the record a guest create echoes back. The id is the
// client's own.
func (s *ChatService) GuestChat(chatID, title string, ts *time.Time) models.Chat {
	return models.Chat{ChatID: chatID, Title: title, CreatedAt: s.timestamp(ts)}
}

// GuestMessage builds an unsaved message with a server-minted id
// (milliseconds since the epoch).
func (s *ChatService) GuestMessage(sender models.Sender, text string, ts *time.Time) models.Message {
	now := s.now()
	created := now
	if ts != nil {
		created = *ts
	}
	return models.Message{ID: now.UnixMilli(), Sender: sender, Text: text, CreatedAt: created}
}

func (s *ChatService) timestamp(ts *time.Time) time.Time {
	if ts != nil && !ts.IsZero() {
		return *ts
	}
	return s.now()
}

func notFoundAsChat(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrChatNotFound
	}
	return fmt.Errorf("chat store: %w", err)
}
