package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/klarwerk/zielbord/internal/database"
	"github.com/klarwerk/zielbord/internal/tasks"
	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/klarwerk/zielbord/pkg/queue"
	"github.com/klarwerk/zielbord/pkg/util"
	"github.com/robfig/cron/v3"
)

// reminderSchedule enqueues a sweep every weekday morning.
const reminderSchedule = "0 9 * * 1-5"

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

	logger.Info("starting zielbord worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Asynq client for enqueuing sweep tasks from the cron tick
	client := queue.NewClient(&cfg.Redis)
	defer client.Close()

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create task handler
	handler := tasks.NewHandler(db, logger, client)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Cron scheduler drives the reminder sweep
	scheduler := cron.New()
	_, err = scheduler.AddFunc(reminderSchedule, func() {
		if _, err := client.Enqueue(tasks.NewReminderSweepTask()); err != nil {
			logger.Error("failed to enqueue reminder sweep", "error", err)
		}
	})
	if err != nil {
		logger.Error("failed to schedule reminder sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Stop()
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
