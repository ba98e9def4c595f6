package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/klarwerk/zielbord/internal/api"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database"
	"github.com/klarwerk/zielbord/internal/learning"
	"github.com/klarwerk/zielbord/internal/storage"
	"github.com/klarwerk/zielbord/internal/suggest"
	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/klarwerk/zielbord/pkg/crypto"
	"github.com/klarwerk/zielbord/pkg/util"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting zielbord server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)
	learningService := learning.NewService(db, logger)

	var google *auth.GoogleProvider
	if cfg.OAuth.GoogleEnabled() {
		google = auth.NewGoogleProvider(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			cfg.OAuth.GoogleRedirectURL,
		)
	}

	suggestService := suggest.NewService(
		suggest.NewCache(),
		suggest.NewClient(cfg.Suggest.URL, cfg.Suggest.APIKey),
		logger,
	)

	// Initialize encryptor for certificate storage
	encryptor, err := crypto.NewEncryptor(cfg.Crypto.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Crypto.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - certificates will be unreadable after restart")
	}

	// Object store for certificate uploads
	var store storage.ObjectStore
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Store(context.Background(), &cfg.Storage, logger)
		if err != nil {
			logger.Error("failed to create object store", "error", err)
			os.Exit(1)
		}
		store = s3Store
	} else {
		logger.Warn("STORAGE_BUCKET not set, certificate uploads disabled")
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		Config:         cfg,
		JWTService:     jwtService,
		AuthService:    authService,
		Google:         google,
		Learning:       learningService,
		Suggest:        suggestService,
		Store:          store,
		Encryptor:      encryptor,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
