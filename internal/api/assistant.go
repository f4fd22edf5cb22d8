package api

import (
	"errors"
	"net/http"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssistantHandler struct {
	assistant *service.AssistantService
	logger    *zap.Logger
}

func NewAssistantHandler(assistant *service.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, logger: logger}
}

type replyRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// Reply handles POST /api/assistant/reply. On a provider failure the
// stored user message is still returned alongside the 500.
func (h *AssistantHandler) Reply(c *gin.Context) {
	var req replyRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.assistant.Reply(c.Request.Context(), middleware.GetIdentity(c), req.ChatID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrAssistantUnavailable) && reply != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":       "assistant is unavailable, please try again",
				"userMessage": reply.UserMessage,
			})
			return
		}
		respondError(c, h.logger, err, "failed to get assistant reply")
		return
	}
	c.JSON(http.StatusOK, reply)
}
