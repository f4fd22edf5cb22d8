package api

import (
	"net/http"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewUserHandler(auth *service.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, logger: logger}
}

// GetUser handles GET /api/user. Guests get {"user": null} rather than
// an error so the client can probe its session state.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
