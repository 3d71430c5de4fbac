package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/feed"
	"github.com/feedranker/feed-digest-bot/internal/llm"
	"github.com/feedranker/feed-digest-bot/internal/score"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

type fakeStore struct {
	mu sync.Mutex

	settings    config.Settings
	settingsErr error
	feeds       []storage.FeedSource
	seenLinks   []string

	savedArticles []*storage.Article
	savedLinks    []string
	history       []storage.RunHistoryEntry
	saveErr       error
	replaceErr    error
	historyErr    error
}

func (s *fakeStore) LoadSettings(context.Context) (config.Settings, error) {
	return s.settings, s.settingsErr
}

func (s *fakeStore) ListEnabledFeeds(context.Context) ([]storage.FeedSource, error) {
	return s.feeds, nil
}

func (s *fakeStore) LoadSeenLinks(context.Context) ([]string, error) {
	return s.seenLinks, nil
}

func (s *fakeStore) ReplaceSeenLinks(_ context.Context, links []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedLinks = links

	return s.replaceErr
}

func (s *fakeStore) SaveArticle(_ context.Context, a *storage.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedArticles = append(s.savedArticles, a)

	return s.saveErr
}

func (s *fakeStore) AddRunHistory(_ context.Context, entry storage.RunHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)

	return s.historyErr
}

type fakeCollector struct {
	items []feed.Item

	mu      sync.Mutex
	sources []feed.Source
	window  time.Duration

	block   chan struct{} // when set, Collect waits until closed
	entered chan struct{}
}

func (c *fakeCollector) Collect(_ context.Context, sources []feed.Source, window time.Duration) []feed.Item {
	c.mu.Lock()
	c.sources = sources
	c.window = window
	c.mu.Unlock()

	if c.entered != nil {
		close(c.entered)
	}

	if c.block != nil {
		<-c.block
	}

	return c.items
}

type fakeSelector struct {
	mu        sync.Mutex
	gotItems  []feed.Item
	pushCount int
	language  string
}

// SelectTop admits everything with a fixed score, newest first order kept.
func (s *fakeSelector) SelectTop(_ context.Context, items []feed.Item, _ llm.ResilienceConfig, language string, pushCount int) []score.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotItems = items
	s.pushCount = pushCount
	s.language = language

	out := make([]score.Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, score.Candidate{
			Item: item,
			Result: score.Result{
				Score:   8,
				Title:   "localized " + item.Title,
				Summary: "summary",
			},
		})
	}

	if len(out) > pushCount {
		out = out[:pushCount]
	}

	return out
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []*storage.Article
	errFor map[string]error
}

func (p *fakePusher) PushSummary(a *storage.Article) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.errFor[a.Link]; ok {
		return err
	}

	msgID := int64(len(p.pushed) + 1)
	a.SummaryMsgID = &msgID
	p.pushed = append(p.pushed, a)

	return nil
}

func workingSettings() config.Settings {
	return config.Settings{
		LLM: config.LLMSettings{Primary: config.Endpoint{APIKey: "key", Model: "gpt"}},
		Ingest: config.IngestSettings{
			LookbackHours:  24,
			OutputLanguage: "en",
		},
		Channel: config.ChannelSettings{Enabled: true, PushCount: 5},
	}
}

func items(links ...string) []feed.Item {
	out := make([]feed.Item, 0, len(links))
	for _, l := range links {
		out = append(out, feed.Item{Title: "t " + l, Link: l, Content: "c", PublishedAt: time.Now()})
	}

	return out
}

func newTestOrchestrator(store *fakeStore, collector *fakeCollector, selector *fakeSelector, pusher *fakePusher) *Orchestrator {
	logger := zerolog.Nop()

	return NewOrchestrator(store, collector, selector, pusher, &logger)
}

func TestRunHappyPath(t *testing.T) {
	store := &fakeStore{
		settings: workingSettings(),
		feeds:    []storage.FeedSource{{ID: "f1", URL: "https://a.example/rss", Name: "A", Enabled: true}},
	}
	collector := &fakeCollector{items: items("https://a.example/1", "https://a.example/2")}
	selector := &fakeSelector{}
	pusher := &fakePusher{}

	outcome := newTestOrchestrator(store, collector, selector, pusher).Run(context.Background())

	if !outcome.Success || outcome.AlreadyRunning {
		t.Fatalf("outcome = %+v, want success", outcome)
	}

	if outcome.NewCount != 2 {
		t.Errorf("NewCount = %d, want 2", outcome.NewCount)
	}

	if collector.window != 24*time.Hour {
		t.Errorf("collect window = %v, want 24h", collector.window)
	}

	if len(pusher.pushed) != 2 || len(store.savedArticles) != 2 {
		t.Errorf("pushed %d, saved %d, want 2 and 2", len(pusher.pushed), len(store.savedArticles))
	}

	for _, a := range store.savedArticles {
		if a.ID == "" || a.SummaryMsgID == nil {
			t.Errorf("saved article missing id or summary msg id: %+v", a)
		}
	}

	if len(store.savedLinks) != 2 {
		t.Errorf("persisted seen links = %v, want both pushed links", store.savedLinks)
	}

	if len(store.history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(store.history))
	}

	if entry := store.history[0]; entry.NewCount != 2 || len(entry.Items) != 2 {
		t.Errorf("history entry = %+v, want 2 items", entry)
	}
}

func TestRunFiltersSeenLinks(t *testing.T) {
	store := &fakeStore{
		settings:  workingSettings(),
		feeds:     []storage.FeedSource{{URL: "https://a.example/rss"}},
		seenLinks: []string{"https://a.example/old"},
	}
	collector := &fakeCollector{items: items("https://a.example/old", "https://a.example/new")}
	selector := &fakeSelector{}
	pusher := &fakePusher{}

	outcome := newTestOrchestrator(store, collector, selector, pusher).Run(context.Background())

	if outcome.NewCount != 1 {
		t.Errorf("NewCount = %d, want 1", outcome.NewCount)
	}

	if len(selector.gotItems) != 1 || selector.gotItems[0].Link != "https://a.example/new" {
		t.Errorf("selector saw %v, want only the unseen item", selector.gotItems)
	}

	// The previously seen link survives the persisted snapshot.
	found := false
	for _, l := range store.savedLinks {
		if l == "https://a.example/old" {
			found = true
		}
	}

	if !found {
		t.Errorf("persisted links %v must retain the old entry", store.savedLinks)
	}
}

func TestRunFailsFastWithoutPrimary(t *testing.T) {
	settings := workingSettings()
	settings.LLM.Primary = config.Endpoint{}

	store := &fakeStore{settings: settings, feeds: []storage.FeedSource{{URL: "u"}}}
	collector := &fakeCollector{items: items("https://a.example/1")}

	outcome := newTestOrchestrator(store, collector, &fakeSelector{}, &fakePusher{}).Run(context.Background())

	if outcome.Success {
		t.Fatalf("outcome = %+v, want failure", outcome)
	}

	if collector.sources != nil {
		t.Error("collector must not be reached without a primary endpoint")
	}
}

func TestRunChannelDisabled(t *testing.T) {
	settings := workingSettings()
	settings.Channel.Enabled = false

	store := &fakeStore{settings: settings, feeds: []storage.FeedSource{{URL: "u"}}}
	collector := &fakeCollector{}

	outcome := newTestOrchestrator(store, collector, &fakeSelector{}, &fakePusher{}).Run(context.Background())

	if !outcome.Success || outcome.NewCount != 0 {
		t.Errorf("outcome = %+v, want trivial success", outcome)
	}

	if collector.sources != nil {
		t.Error("collector must not run while the channel is disabled")
	}
}

func TestRunPushFailureSkipsArticle(t *testing.T) {
	store := &fakeStore{
		settings: workingSettings(),
		feeds:    []storage.FeedSource{{URL: "u"}},
	}
	collector := &fakeCollector{items: items("https://a.example/ok", "https://a.example/broken")}
	pusher := &fakePusher{errFor: map[string]error{"https://a.example/broken": errors.New("telegram 502")}}

	outcome := newTestOrchestrator(store, collector, &fakeSelector{}, pusher).Run(context.Background())

	if !outcome.Success || outcome.NewCount != 1 {
		t.Fatalf("outcome = %+v, want success with one pushed", outcome)
	}

	// The failed link stays out of the ledger so it can compete next run.
	for _, l := range store.savedLinks {
		if l == "https://a.example/broken" {
			t.Error("failed push must not mark the link as seen")
		}
	}
}

func TestRunNoNewArticlesStillRecordsHistory(t *testing.T) {
	store := &fakeStore{
		settings:  workingSettings(),
		feeds:     []storage.FeedSource{{URL: "u"}},
		seenLinks: []string{"https://a.example/1"},
	}
	collector := &fakeCollector{items: items("https://a.example/1")}

	outcome := newTestOrchestrator(store, collector, &fakeSelector{}, &fakePusher{}).Run(context.Background())

	if !outcome.Success || outcome.NewCount != 0 {
		t.Fatalf("outcome = %+v, want empty success", outcome)
	}

	if len(store.history) != 1 || store.history[0].NewCount != 0 {
		t.Errorf("history = %+v, want one zero-count entry", store.history)
	}
}

func TestRunSingleFlight(t *testing.T) {
	store := &fakeStore{
		settings: workingSettings(),
		feeds:    []storage.FeedSource{{URL: "u"}},
	}
	collector := &fakeCollector{
		items:   items("https://a.example/1"),
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}

	o := newTestOrchestrator(store, collector, &fakeSelector{}, &fakePusher{})

	done := make(chan RunOutcome, 1)
	go func() { done <- o.Run(context.Background()) }()

	<-collector.entered

	if !o.Running() {
		t.Error("Running() should report true mid-run")
	}

	second := o.Run(context.Background())
	if !second.AlreadyRunning {
		t.Fatalf("second outcome = %+v, want AlreadyRunning", second)
	}

	close(collector.block)

	first := <-done
	if !first.Success {
		t.Fatalf("first outcome = %+v, want success", first)
	}

	if o.Running() {
		t.Error("Running() should report false after completion")
	}

	// The slot is free again.
	collector.block = nil
	collector.entered = nil

	third := o.Run(context.Background())
	if !third.Success {
		t.Errorf("third outcome = %+v, want success after slot freed", third)
	}
}

func TestRunBookkeepingFailureDoesNotFailRun(t *testing.T) {
	store := &fakeStore{
		settings:   workingSettings(),
		feeds:      []storage.FeedSource{{URL: "u"}},
		replaceErr: errors.New("db down"),
		historyErr: errors.New("db down"),
	}
	collector := &fakeCollector{items: items("https://a.example/1", "https://a.example/2")}
	pusher := &fakePusher{}

	outcome := newTestOrchestrator(store, collector, &fakeSelector{}, pusher).Run(context.Background())

	// Both articles went out before persistence failed; the run succeeded.
	if !outcome.Success || outcome.NewCount != 2 {
		t.Fatalf("outcome = %+v, want success with 2 pushed", outcome)
	}

	if len(pusher.pushed) != 2 {
		t.Errorf("pushed = %d, want 2", len(pusher.pushed))
	}
}

func TestRunSettingsError(t *testing.T) {
	store := &fakeStore{settingsErr: errors.New("db down")}

	outcome := newTestOrchestrator(store, &fakeCollector{}, &fakeSelector{}, &fakePusher{}).Run(context.Background())

	if outcome.Success || outcome.AlreadyRunning {
		t.Errorf("outcome = %+v, want plain failure", outcome)
	}
}
