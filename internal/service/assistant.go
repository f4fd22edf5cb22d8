package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/barysai/barysai/internal/auth"
	"github.com/barysai/barysai/internal/models"
	"go.uber.org/zap"
)

// Completer produces the assistant's answer to a user prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// titleRunes caps the chat title derived from the first question.
const titleRunes = 40

// Reply is the outcome of one assistant turn. Chat is set only when the
// turn renamed the chat.
type Reply struct {
	UserMessage *models.Message `json:"userMessage"`
	BotMessage  *models.Message `json:"botMessage"`
	Chat        *models.Chat    `json:"chat,omitempty"`
}

// AssistantService runs a full conversational turn: store the question,
// ask the provider, store the answer.
type AssistantService struct {
	chats     *ChatService
	completer Completer
	logger    *zap.Logger
}

func NewAssistantService(chats *ChatService, completer Completer, logger *zap.Logger) *AssistantService {
	return &AssistantService{chats: chats, completer: completer, logger: logger}
}

// Reply persists exactly one user message and, if the provider answers,
// exactly one bot message. A provider failure leaves the user message in
// place and returns ErrAssistantUnavailable.
func (s *AssistantService) Reply(ctx context.Context, id auth.Identity, chatID, text string) (*Reply, error) {
	if id.IsGuest() {
		return s.guestReply(ctx, text)
	}

	chat, err := s.chats.chats.GetOwned(ctx, id.UserID(), chatID)
	if err != nil {
		return nil, notFoundAsChat(err)
	}

	userMsg, err := s.chats.AppendMessage(ctx, id, chatID, models.SenderUser, text, nil)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, text)
	if err != nil {
		s.logger.Error("assistant completion failed",
			zap.Int64("user_id", id.UserID()),
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return &Reply{UserMessage: userMsg}, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	botMsg, err := s.chats.AppendMessage(ctx, id, chatID, models.SenderBot, answer, nil)
	if err != nil {
		return nil, err
	}

	reply := &Reply{UserMessage: userMsg, BotMessage: botMsg}

	if chat.Title == models.DefaultChatTitle {
		renamed, err := s.chats.UpdateTitle(ctx, id, chatID, TitleFromText(text))
		if err != nil {
			s.logger.Warn("failed to auto-title chat", zap.String("chat_id", chatID), zap.Error(err))
		} else {
			reply.Chat = renamed
		}
	}
	return reply, nil
}

func (s *AssistantService) guestReply(ctx context.Context, text string) (*Reply, error) {
	userMsg := s.chats.GuestMessage(models.SenderUser, text, nil)

	answer, err := s.completer.Complete(ctx, text)
	if err != nil {
		s.logger.Error("assistant completion failed for guest", zap.Error(err))
		return &Reply{UserMessage: &userMsg}, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	// Minted ids are millisecond timestamps; keep the pair distinct.
	botMsg := s.chats.GuestMessage(models.SenderBot, answer, nil)
	if botMsg.ID <= userMsg.ID {
		botMsg.ID = userMsg.ID + 1
	}
	return &Reply{UserMessage: &userMsg, BotMessage: &botMsg}, nil
}

// TitleFromText turns the first question of a chat into its title.
func TitleFromText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= titleRunes {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:titleRunes]))
}
