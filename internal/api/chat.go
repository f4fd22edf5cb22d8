package api

import (
	"net/http"
	"time"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chats  *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chats *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, logger: logger}
}

type createChatRequest struct {
	ChatID    string     `json:"chatId" binding:"required,max=255"`
	Title     string     `json:"title" binding:"required,max=255"`
	Timestamp *time.Time `json:"timestamp"`
}

type updateTitleRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// List handles GET /api/chats
func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.chats.ListChats(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list chats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Create handles POST /api/chats
func (h *ChatHandler) Create(c *gin.Context) {
	var req createChatRequest
	if !bindJSON(c, &req) {
		return
	}

	chat, err := h.chats.CreateChat(c.Request.Context(), middleware.GetIdentity(c), req.ChatID, req.Title, req.Timestamp)
	if err != nil {
		respondError(c, h.logger, err, "failed to create chat")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// UpdateTitle handles PUT /api/chats/:chatId and its older alias
// PUT /api/chats/:chatId/update-title.
func (h *ChatHandler) UpdateTitle(c *gin.Context) {
	var req updateTitleRequest
	if !bindJSON(c, &req) {
		return
	}

	chat, err := h.chats.UpdateTitle(c.Request.Context(), middleware.GetIdentity(c), c.Param("chatId"), req.Title)
	if err != nil {
		respondError(c, h.logger, err, "failed to update chat title")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// Delete handles DELETE /api/chats/:chatId
func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.chats.DeleteChat(c.Request.Context(), middleware.GetIdentity(c), c.Param("chatId")); err != nil {
		respondError(c, h.logger, err, "failed to delete chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}
