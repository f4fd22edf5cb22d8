package api

import (
	"net/http"
	"time"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler struct {
	chats  *service.ChatService
	logger *zap.Logger
}

func NewMessageHandler(chats *service.ChatService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{chats: chats, logger: logger}
}

type createMessageRequest struct {
	ChatID    string     `json:"chatId" binding:"required"`
	Sender    string     `json:"sender" binding:"required,oneof=user bot"`
	Text      string     `json:"text" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// List handles GET /api/messages/:chatId
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.chats.ListMessages(c.Request.Context(), middleware.GetIdentity(c), c.Param("chatId"))
	if err != nil {
		respondError(c, h.logger, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Create handles POST /api/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chats.AppendMessage(
		c.Request.Context(),
		middleware.GetIdentity(c),
		req.ChatID,
		models.Sender(req.Sender),
		req.Text,
		req.Timestamp,
	)
	if err != nil {
		respondError(c, h.logger, err, "failed to save message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
