package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/digest"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

const (
	// pollInterval is well under a minute so no matching minute is skipped.
	pollInterval = 20 * time.Second

	// maintenanceHour is the local hour of the daily cleanup pass.
	maintenanceHour = 4

	// Aged rows removed by the daily maintenance pass.
	articleRetention  = 30 * 24 * time.Hour
	seenLinkRetention = 30 * 24 * time.Hour

	minuteKeyLayout = "2006-01-02 15:04"
)

// SettingsLoader supplies the current schedule configuration each tick, so
// pattern edits take effect without a restart.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
}

// Runner triggers a digest run.
type Runner interface {
	Run(ctx context.Context) digest.RunOutcome
}

// Maintainer removes aged rows.
type Maintainer interface {
	PruneArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PruneSeenLinksBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ Maintainer = (*storage.DB)(nil)

type Scheduler struct {
	settings   SettingsLoader
	runner     Runner
	maintainer Maintainer
	logger     *zerolog.Logger

	poll time.Duration
	now  func() time.Time

	lastFired       string
	lastMaintenance string
}

func NewScheduler(settings SettingsLoader, runner Runner, maintainer Maintainer, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		settings:   settings,
		runner:     runner,
		maintainer: maintainer,
		logger:     logger,
		poll:       pollInterval,
		now:        time.Now,
	}
}

// Start blocks until ctx is canceled, ticking the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Msg("scheduler started")

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")

			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates one scheduler step at the current wall clock. A minute that
// already fired is never fired again, no matter how many polls land inside it.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	key := now.Format(minuteKeyLayout)

	s.maintain(ctx, now)

	if key == s.lastFired {
		return
	}

	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler failed to load settings")

		return
	}

	if !settings.Schedule.Enabled {
		return
	}

	pattern, err := ParsePattern(settings.Schedule.Pattern)
	if err != nil {
		s.logger.Error().Err(err).Msg("invalid schedule pattern")

		return
	}

	if !pattern.Matches(now) {
		return
	}

	s.lastFired = key
	s.logger.Info().Str("pattern", pattern.String()).Msg("schedule matched, triggering digest run")

	outcome := s.runner.Run(ctx)
	if outcome.AlreadyRunning {
		s.logger.Warn().Msg("scheduled run skipped: another run is in progress")
	}
}

// maintain runs the daily cleanup once per matching hour.
func (s *Scheduler) maintain(ctx context.Context, now time.Time) {
	if now.Hour() != maintenanceHour {
		return
	}

	key := now.Format("2006-01-02")
	if key == s.lastMaintenance {
		return
	}

	s.lastMaintenance = key

	articles, err := s.maintainer.PruneArticlesBefore(ctx, now.Add(-articleRetention))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to prune aged articles")
	}

	links, err := s.maintainer.PruneSeenLinksBefore(ctx, now.Add(-seenLinkRetention))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to prune aged seen links")
	}

	s.logger.Info().Int64("articles", articles).Int64("links", links).Msg("maintenance pass done")
}
