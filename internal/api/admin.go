package api

import (
	"net/http"

	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the dashboard aggregates. The router puts it
// behind strict auth and RequireRole(admin).
type AdminHandler struct {
	admin  *service.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Users handles GET /api/admin/users
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.admin.Users(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Registrations handles GET /api/admin/registrations
func (h *AdminHandler) Registrations(c *gin.Context) {
	days, err := h.admin.Registrations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to load registrations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": days})
}
