package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/app"
	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

func main() {
	mode := flag.String("mode", "serve", "Service mode (serve, digest)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := storage.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	if err := database.SeedSettings(ctx, config.DefaultSettings(cfg)); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed settings")
	}

	application, err := app.New(ctx, cfg, database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	if err := runMode(ctx, application, *mode); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")

			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string) error {
	switch mode {
	case "serve":
		return application.RunServe(ctx)
	case "digest":
		return application.RunDigestOnce(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[serve|digest]", os.Args[0])

		return nil
	}
}
