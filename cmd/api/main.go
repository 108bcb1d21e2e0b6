package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/gst-billing/internal/cli"
	"github.com/sangkips/gst-billing/internal/config"
	"github.com/sangkips/gst-billing/pkg/logger"
)

func main() {
	// A missing .env is fine; the environment may carry everything
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run on start so a fresh database is usable immediately
	if err := cli.Serve(ctx, cfg, os.Getenv("AUTO_MIGRATE") != "false"); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
