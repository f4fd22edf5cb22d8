package api

import (
	"net/http"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
)

// GuestHandler echoes chats and messages back without storing them. The
// client keeps guest conversations in memory.
type GuestHandler struct {
	chats *service.ChatService
}

func NewGuestHandler(chats *service.ChatService) *GuestHandler {
	return &GuestHandler{chats: chats}
}

// CreateChat handles POST /api/guest/chats
func (h *GuestHandler) CreateChat(c *gin.Context) {
	var req createChatRequest
	if !bindJSON(c, &req) {
		return
	}
	chat := h.chats.GuestChat(req.ChatID, req.Title, req.Timestamp)
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// CreateMessage handles POST /api/guest/messages
func (h *GuestHandler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg := h.chats.GuestMessage(models.Sender(req.Sender), req.Text, req.Timestamp)
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
