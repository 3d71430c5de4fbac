// Package app wires the pieces together and exposes the operational modes:
// serve (scheduler + bot loop + admin server) and a one-shot digest run.
package app

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/bot"
	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/digest"
	"github.com/feedranker/feed-digest-bot/internal/feed"
	"github.com/feedranker/feed-digest-bot/internal/llm"
	"github.com/feedranker/feed-digest-bot/internal/notify"
	"github.com/feedranker/feed-digest-bot/internal/schedule"
	"github.com/feedranker/feed-digest-bot/internal/score"
	"github.com/feedranker/feed-digest-bot/internal/server"
	"github.com/feedranker/feed-digest-bot/internal/storage"
	"github.com/feedranker/feed-digest-bot/internal/translate"
)

const errBotInit = "telegram bot initialization failed: %w"

// App holds the wired application.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger

	orchestrator *digest.Orchestrator
	translator   *translate.Handler
	scheduler    *schedule.Scheduler
	admin        *server.Server
	updates      *bot.Bot
}

// New builds the full dependency graph. The settings document must already be
// seeded.
func New(ctx context.Context, cfg *config.Config, database *storage.DB, logger *zerolog.Logger) (*App, error) {
	settings, err := database.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	token := settings.Channel.BotToken
	if token == "" {
		token = cfg.BotToken
	}

	chatID := settings.Channel.ChatID
	if chatID == 0 {
		chatID = cfg.TargetChatID
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf(errBotInit, err)
	}

	notifier := notify.NewWithAPI(api, chatID, logger)
	invoker := llm.NewInvoker(logger)
	scorer := score.NewScorer(invoker, logger)
	aggregator := feed.NewAggregator(feed.NewFetcher(logger), logger)

	orchestrator := digest.NewOrchestrator(database, aggregator, scorer, notifier, logger)
	translator := translate.NewHandler(database, invoker, notifier, database, logger)

	return &App{
		cfg:          cfg,
		database:     database,
		logger:       logger,
		orchestrator: orchestrator,
		translator:   translator,
		scheduler:    schedule.NewScheduler(database, orchestrator, database, logger),
		admin:        server.New(database, orchestrator, cfg.ListenAddr, logger),
		updates:      bot.New(api, translator, orchestrator, chatID, logger),
	}, nil
}

// RunServe runs all long-lived components until ctx is canceled: the admin
// server, the scheduler and the Telegram update loop.
func (a *App) RunServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	go func() {
		errCh <- a.admin.Start(ctx)
	}()

	go func() {
		a.scheduler.Start(ctx)
		errCh <- nil
	}()

	err := a.updates.Run(ctx)
	cancel()

	for i := 0; i < 2; i++ {
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, context.Canceled) {
			a.logger.Error().Err(serveErr).Msg("component stopped with error")
		}
	}

	return err
}

// RunDigestOnce triggers a single digest run and returns its outcome as an
// error when it failed.
func (a *App) RunDigestOnce(ctx context.Context) error {
	outcome := a.orchestrator.Run(ctx)
	if !outcome.Success {
		return fmt.Errorf("digest run: %s", outcome.Message)
	}

	a.logger.Info().Int("new_count", outcome.NewCount).Msg(outcome.Message)

	return nil
}
