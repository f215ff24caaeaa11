package main

import (
	"context"
	"fmt"
	"log"

	"github.com/getvessel/vessel/api"
	"github.com/getvessel/vessel/config"
	"github.com/getvessel/vessel/domain"
	"github.com/getvessel/vessel/flow"
	"github.com/getvessel/vessel/logger"
	"github.com/getvessel/vessel/mailer"
	"github.com/getvessel/vessel/provider"
	"github.com/getvessel/vessel/session"
	"github.com/getvessel/vessel/vgorm"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting Vessel Account Support Service",
		zap.Int("port", cfg.Port),
		zap.String("dsn", cfg.DSN),
		zap.String("token_store", cfg.TokenStore),
	)

	repo, err := vgorm.NewStorage(cfg.DBType, cfg.DSN)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}

	var tokens domain.TokenStore = repo
	if cfg.TokenStore == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Log.Fatal("failed to connect to redis", zap.Error(err))
		}
		tokens = flow.NewRedisTokenStore(client, "")
	}

	// Session strategy
	sessionStrategy := session.NewDatabaseStrategy(repo)
	sessionStrategy.SetTTL(cfg.SessionTTL)
	sessions := session.NewManager(sessionStrategy)

	// Development mailer; production deployments swap in a real backend.
	mail := mailer.NewLogMailer(logger.Log, cfg.BaseURL)

	// Initialize Managers
	recovery := flow.NewRecoveryManager(repo, repo, tokens, mail)
	recovery.SetTTL(cfg.RecoveryTokenTTL)
	recovery.SetLogger(logger.Log)

	confirmation := flow.NewConfirmationManager(repo, tokens, mail, sessions)
	confirmation.SetTTL(cfg.ConfirmationTokenTTL)
	confirmation.SetLogger(logger.Log)

	social := flow.NewSocialManager(repo, sessions)
	social.SetLogger(logger.Log)

	verifier, err := provider.NewVerifier(context.Background(), cfg.OIDCProviders)
	if err != nil {
		logger.Log.Fatal("failed to initialize OIDC providers", zap.Error(err))
	}

	// Initialize Handler
	h := api.NewHandler(recovery, confirmation, social, sessions, verifier)

	// Setup Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	g := e.Group("/api/v1")
	h.RegisterRoutes(g)

	logger.Log.Info("Server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
