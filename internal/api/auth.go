package api

import (
	"errors"
	"net/http"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves the public credential endpoints. A successful
// register or login sets the session cookie.
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userResponse is the public shape of a user. The password hash and
// username stay on the server.
type userResponse struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

func toUserResponse(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.logger, err, "registration failed")
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    toUserResponse(user),
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "login failed")
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    toUserResponse(user),
	})
}

// AdminLogin handles POST /api/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.auth.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "admin login failed")
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Admin login successful",
		"user":    toUserResponse(user),
	})
}

// Logout handles POST /api/logout. It always succeeds from the client's
// point of view; a revocation failure only shows up in the logs.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.logger.Warn("failed to revoke session on logout", zap.Error(err))
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.TokenCookie,
		token,
		int(h.auth.TokenTTL().Seconds()),
		"/",
		"",
		h.secureCookie,
		true,
	)
}
