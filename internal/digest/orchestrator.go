// Package digest runs the end-to-end pipeline: collect feed entries, drop
// already-seen links, score and select the best candidates, push their
// summaries to the channel, and persist the results.
//
// Runs are single-flight. A run triggered while another is in progress does
// not queue; it reports a distinct "already running" outcome and leaves the
// current run untouched.
package digest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/dedup"
	"github.com/feedranker/feed-digest-bot/internal/feed"
	"github.com/feedranker/feed-digest-bot/internal/llm"
	"github.com/feedranker/feed-digest-bot/internal/observability"
	"github.com/feedranker/feed-digest-bot/internal/score"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

// Run outcome messages.
const (
	msgAlreadyRunning  = "digest run already in progress"
	msgNoPrimary       = "primary LLM endpoint is not configured"
	msgChannelDisabled = "channel push is disabled"
	msgNoFeeds         = "no enabled feed sources"
)

// Store is the persistence surface a run touches.
type Store interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
	ListEnabledFeeds(ctx context.Context) ([]storage.FeedSource, error)
	LoadSeenLinks(ctx context.Context) ([]string, error)
	ReplaceSeenLinks(ctx context.Context, links []string) error
	SaveArticle(ctx context.Context, a *storage.Article) error
	AddRunHistory(ctx context.Context, entry storage.RunHistoryEntry) error
}

var _ Store = (*storage.DB)(nil)

// Collector gathers recent entries from the configured sources.
type Collector interface {
	Collect(ctx context.Context, sources []feed.Source, window time.Duration) []feed.Item
}

var _ Collector = (*feed.Aggregator)(nil)

// Selector scores items and returns the ranked winners.
type Selector interface {
	SelectTop(ctx context.Context, items []feed.Item, cfg llm.ResilienceConfig, language string, pushCount int) []score.Candidate
}

var _ Selector = (*score.Scorer)(nil)

// Pusher delivers one summary card to the channel.
type Pusher interface {
	PushSummary(a *storage.Article) error
}

// RunOutcome is the structured result of a triggered run.
type RunOutcome struct {
	Success        bool   `json:"success"`
	AlreadyRunning bool   `json:"already_running"`
	Message        string `json:"message"`
	NewCount       int    `json:"new_count"`
}

type Orchestrator struct {
	store     Store
	collector Collector
	selector  Selector
	pusher    Pusher
	logger    *zerolog.Logger

	running atomic.Bool
}

func NewOrchestrator(store Store, collector Collector, selector Selector, pusher Pusher, logger *zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		collector: collector,
		selector:  selector,
		pusher:    pusher,
		logger:    logger,
	}
}

// Running reports whether a run is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run executes one digest cycle. Concurrent callers beyond the first get an
// AlreadyRunning outcome immediately.
func (o *Orchestrator) Run(ctx context.Context) RunOutcome {
	if !o.running.CompareAndSwap(false, true) {
		observability.RunsTotal.WithLabelValues(observability.OutcomeConflict).Inc()

		return RunOutcome{AlreadyRunning: true, Message: msgAlreadyRunning}
	}
	defer o.running.Store(false)

	outcome := o.runOnce(ctx)

	if outcome.Success {
		observability.RunsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
		o.logger.Info().Int("new_count", outcome.NewCount).Str("message", outcome.Message).Msg("digest run finished")
	} else {
		observability.RunsTotal.WithLabelValues(observability.OutcomeFailure).Inc()
		o.logger.Error().Str("message", outcome.Message).Msg("digest run failed")
	}

	return outcome
}

func (o *Orchestrator) runOnce(ctx context.Context) (outcome RunOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("digest run panicked")
			outcome = RunOutcome{Message: fmt.Sprintf("digest run panicked: %v", r)}
		}
	}()

	settings, err := o.store.LoadSettings(ctx)
	if err != nil {
		return RunOutcome{Message: fmt.Sprintf("failed to load settings: %v", err)}
	}

	// Without a primary endpoint nothing can be scored; bail before touching
	// the network.
	if !llm.Endpoint(settings.LLM.Primary).Configured() {
		return RunOutcome{Message: msgNoPrimary}
	}

	if !settings.Channel.Enabled {
		return RunOutcome{Success: true, Message: msgChannelDisabled}
	}

	feeds, err := o.store.ListEnabledFeeds(ctx)
	if err != nil {
		return RunOutcome{Message: fmt.Sprintf("failed to list feeds: %v", err)}
	}

	if len(feeds) == 0 {
		return RunOutcome{Success: true, Message: msgNoFeeds}
	}

	sources := make([]feed.Source, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, feed.Source{URL: f.URL, Name: f.Name})
	}

	window := time.Duration(settings.Ingest.LookbackHours) * time.Hour
	items := o.collector.Collect(ctx, sources, window)

	seen, err := o.store.LoadSeenLinks(ctx)
	if err != nil {
		return RunOutcome{Message: fmt.Sprintf("failed to load seen links: %v", err)}
	}

	ledger := dedup.NewLedger(dedup.DefaultCapacity, seen)

	fresh := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if ledger.IsNew(item.Link) {
			fresh = append(fresh, item)
		}
	}

	o.logger.Info().
		Int("collected", len(items)).
		Int("fresh", len(fresh)).
		Msg("collected feed entries")

	if len(fresh) == 0 {
		o.recordRun(ctx, nil)

		return RunOutcome{Success: true, Message: "no new articles"}
	}

	rc := llm.ResilienceFromSettings(settings)
	candidates := o.selector.SelectTop(ctx, fresh, rc, settings.Ingest.OutputLanguage, settings.Channel.PushCount)

	pushed := make([]*storage.Article, 0, len(candidates))

	for _, c := range candidates {
		article := newArticle(c)

		if err := o.pusher.PushSummary(article); err != nil {
			// A failed push leaves the link unmarked so the article can
			// compete again next run.
			o.logger.Error().Err(err).Str("link", article.Link).Msg("failed to push summary")

			continue
		}

		observability.ArticlesPushedTotal.Inc()
		ledger.MarkSeen(article.Link)

		if err := o.store.SaveArticle(ctx, article); err != nil {
			o.logger.Error().Err(err).Str("link", article.Link).Msg("failed to save article")
		}

		pushed = append(pushed, article)
	}

	// Persistence is best effort once the articles are out: the pushes
	// already happened, so bookkeeping trouble must not fail the run.
	if err := o.store.ReplaceSeenLinks(ctx, ledger.Links()); err != nil {
		o.logger.Error().Err(err).Msg("failed to persist seen links")
	}

	o.recordRun(ctx, pushed)

	return RunOutcome{
		Success:  true,
		Message:  fmt.Sprintf("pushed %d articles", len(pushed)),
		NewCount: len(pushed),
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, pushed []*storage.Article) {
	entry := storage.RunHistoryEntry{
		Date:     time.Now().UTC(),
		NewCount: len(pushed),
		Items:    make([]storage.RunHistoryItem, 0, len(pushed)),
	}

	for _, a := range pushed {
		entry.Items = append(entry.Items, storage.RunHistoryItem{
			ID:             a.ID,
			TitleLocalized: a.TitleLocalized,
			Score:          a.Score,
		})
	}

	if err := o.store.AddRunHistory(ctx, entry); err != nil {
		o.logger.Error().Err(err).Msg("failed to record run history")
	}
}

func newArticle(c score.Candidate) *storage.Article {
	return &storage.Article{
		ID:             uuid.NewString(),
		Title:          c.Item.Title,
		TitleLocalized: c.Result.Title,
		Link:           c.Item.Link,
		Content:        c.Item.Content,
		Summary:        c.Result.Summary,
		Category:       c.Result.Category,
		Score:          c.Result.Score,
		Keywords:       c.Result.Keywords,
		Reason:         c.Result.Reason,
		CreatedAt:      time.Now().UTC(),
	}
}
