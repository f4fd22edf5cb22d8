package api

import (
	"context"
	"net/http"
	"time"

	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/observ"
	"github.com/barysai/barysai/internal/repository"
	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything NewRouter wires into handlers.
type Deps struct {
	Auth      *service.AuthService
	Chats     *service.ChatService
	Admin     *service.AdminService
	Assistant *service.AssistantService

	Authenticator *middleware.Authenticator
	Users         repository.UserRepository
	DB            Pinger

	Metrics        *observ.Metrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	SecureCookies  bool
	Logger         *zap.Logger
}

// NewRouter builds the gin engine. Every application route lives under
// /api; /health and /metrics sit at the root.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.CORS(d.AllowedOrigins),
	)

	r.GET("/health", healthHandler(d.DB))
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	authH := NewAuthHandler(d.Auth, d.SecureCookies, d.Logger)
	userH := NewUserHandler(d.Auth, d.Logger)
	chatH := NewChatHandler(d.Chats, d.Logger)
	msgH := NewMessageHandler(d.Chats, d.Logger)
	guestH := NewGuestHandler(d.Chats)
	adminH := NewAdminHandler(d.Admin, d.Logger)

	api := r.Group("/api")

	// Public.
	api.POST("/register", authH.Register)
	api.POST("/login", authH.Login)
	api.POST("/logout", authH.Logout)
	api.POST("/admin/login", authH.AdminLogin)
	api.POST("/guest/chats", guestH.CreateChat)
	api.POST("/guest/messages", guestH.CreateMessage)

	// Guest fallback: a bad or missing session acts as a guest.
	session := api.Group("")
	session.Use(d.Authenticator.Middleware(middleware.Options{
		Policy:      middleware.DegradeToGuest,
		ConfirmUser: d.Users,
	}))
	{
		session.GET("/user", userH.GetUser)

		session.GET("/chats", chatH.List)
		session.POST("/chats", chatH.Create)
		session.PUT("/chats/:chatId", chatH.UpdateTitle)
		session.PUT("/chats/:chatId/update-title", chatH.UpdateTitle)
		session.DELETE("/chats/:chatId", chatH.Delete)

		session.GET("/messages/:chatId", msgH.List)
		session.POST("/messages", msgH.Create)

		if d.Assistant != nil {
			assistantH := NewAssistantHandler(d.Assistant, d.Logger)
			session.POST("/assistant/reply", assistantH.Reply)
		}
	}

	// Admin: strict session, role taken from the database row.
	admin := api.Group("/admin")
	admin.Use(
		d.Authenticator.Middleware(middleware.Options{
			Policy:      middleware.Reject,
			ConfirmUser: d.Users,
		}),
		middleware.RequireRole(models.RoleAdmin),
	)
	{
		admin.GET("/stats", adminH.Stats)
		admin.GET("/users", adminH.Users)
		admin.GET("/registrations", adminH.Registrations)
	}

	return r
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
