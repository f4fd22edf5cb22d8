package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barysai/barysai/internal/api"
	"github.com/barysai/barysai/internal/assistant"
	"github.com/barysai/barysai/internal/auth"
	"github.com/barysai/barysai/internal/config"
	"github.com/barysai/barysai/internal/db"
	"github.com/barysai/barysai/internal/middleware"
	"github.com/barysai/barysai/internal/observ"
	"github.com/barysai/barysai/internal/repository/postgres"
	"github.com/barysai/barysai/internal/service"
	"github.com/barysai/barysai/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ---------------------------------------------------------------
	// 2. Postgres: pool, then schema. Both happen before the listener
	//    opens, so no request ever sees a missing table.
	// ---------------------------------------------------------------
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	database, err := db.New(startCtx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// ---------------------------------------------------------------
	// 3. Session revocation. Without Redis, logout only clears the
	//    cookie and tokens stay valid until they expire.
	// ---------------------------------------------------------------
	var revoker session.Revoker = session.NopRevoker{}
	if cfg.Redis.URL != "" {
		rdb, err := session.Connect(startCtx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		revoker = session.NewRedisRevoker(rdb)
	} else {
		logger.Warn("redis.url not set, logout will not revoke tokens")
	}

	// ---------------------------------------------------------------
	// 4. Repositories and services
	// ---------------------------------------------------------------
	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	chatRepo := postgres.NewChatStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	queryStatRepo := postgres.NewQueryStatStore(pool)
	statsRepo := postgres.NewStatsStore(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observ.NewMetrics(registry)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	authSvc := service.NewAuthService(userRepo, tokens, revoker, cfg.Admin, logger)
	chatSvc := service.NewChatService(chatRepo, messageRepo, queryStatRepo, metrics, logger)
	adminSvc := service.NewAdminService(statsRepo)

	admin, err := authSvc.EnsureAdmin(startCtx)
	if err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	}
	logger.Info("admin account ready", zap.Int64("user_id", admin.ID))

	// ---------------------------------------------------------------
	// 5. Assistant gateway (optional)
	// ---------------------------------------------------------------
	var assistantSvc *service.AssistantService
	if cfg.Assistant.APIKey != "" {
		client, err := assistant.New(cfg.Assistant, &http.Client{}, metrics, logger)
		if err != nil {
			return fmt.Errorf("create assistant client: %w", err)
		}
		assistantSvc = service.NewAssistantService(chatSvc, client, logger)
	} else {
		logger.Warn("assistant.api_key not set, /api/assistant/reply disabled")
	}

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	router := api.NewRouter(api.Deps{
		Auth:           authSvc,
		Chats:          chatSvc,
		Admin:          adminSvc,
		Assistant:      assistantSvc,
		Authenticator:  middleware.NewAuthenticator(tokens, revoker, logger),
		Users:          userRepo,
		DB:             database,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
		Logger:         logger,
	})

	// An assistant reply may walk every candidate, so the write timeout
	// has to outlast the whole chain.
	candidates := len(cfg.Assistant.Models) * len(cfg.Assistant.Endpoints)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(candidates)*cfg.Assistant.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting BarysAI",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
