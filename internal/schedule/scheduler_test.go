package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/digest"
)

type fakeSettings struct {
	enabled bool
	pattern string
}

func (f fakeSettings) LoadSettings(context.Context) (config.Settings, error) {
	return config.Settings{Schedule: config.ScheduleSettings{Enabled: f.enabled, Pattern: f.pattern}}, nil
}

type fakeRunner struct {
	runs int
}

func (r *fakeRunner) Run(context.Context) digest.RunOutcome {
	r.runs++

	return digest.RunOutcome{Success: true}
}

type fakeMaintainer struct {
	articleCalls []time.Time
	linkCalls    []time.Time
}

func (m *fakeMaintainer) PruneArticlesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.articleCalls = append(m.articleCalls, cutoff)

	return 3, nil
}

func (m *fakeMaintainer) PruneSeenLinksBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.linkCalls = append(m.linkCalls, cutoff)

	return 7, nil
}

func testScheduler(settings SettingsLoader, runner Runner, maintainer Maintainer) *Scheduler {
	logger := zerolog.Nop()

	return NewScheduler(settings, runner, maintainer, &logger)
}

func TestTickFiresOncePerMinute(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(fakeSettings{enabled: true, pattern: "0 8"}, runner, &fakeMaintainer{})

	clock := time.Date(2026, time.August, 30, 8, 0, 5, 0, time.UTC)
	s.now = func() time.Time { return clock }

	// Three polls land inside the matching minute; only the first fires.
	for i := 0; i < 3; i++ {
		s.Tick(context.Background())
		clock = clock.Add(20 * time.Second)
	}

	if runner.runs != 1 {
		t.Errorf("runs = %d, want exactly 1 within the matching minute", runner.runs)
	}

	// Next day, same time: fires again.
	clock = clock.Add(24 * time.Hour)
	s.Tick(context.Background())

	if runner.runs != 2 {
		t.Errorf("runs = %d, want 2 after the next matching minute", runner.runs)
	}
}

func TestTickHonorsPattern(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(fakeSettings{enabled: true, pattern: "0 8"}, runner, &fakeMaintainer{})

	s.now = func() time.Time { return time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC) }
	s.Tick(context.Background())

	if runner.runs != 0 {
		t.Errorf("runs = %d, want 0 outside the pattern", runner.runs)
	}
}

func TestTickDisabledSchedule(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(fakeSettings{enabled: false, pattern: "* *"}, runner, &fakeMaintainer{})

	s.now = func() time.Time { return time.Date(2026, time.August, 30, 8, 0, 0, 0, time.UTC) }
	s.Tick(context.Background())

	if runner.runs != 0 {
		t.Errorf("runs = %d, want 0 while disabled", runner.runs)
	}
}

func TestTickInvalidPattern(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(fakeSettings{enabled: true, pattern: "whenever"}, runner, &fakeMaintainer{})

	s.now = func() time.Time { return time.Date(2026, time.August, 30, 8, 0, 0, 0, time.UTC) }
	s.Tick(context.Background())

	if runner.runs != 0 {
		t.Errorf("runs = %d, want 0 on unparseable pattern", runner.runs)
	}
}

func TestMaintenanceRunsOncePerDay(t *testing.T) {
	maintainer := &fakeMaintainer{}
	s := testScheduler(fakeSettings{enabled: false}, &fakeRunner{}, maintainer)

	clock := time.Date(2026, time.August, 30, maintenanceHour, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Tick(context.Background())

	clock = clock.Add(20 * time.Minute) // still inside the maintenance hour
	s.Tick(context.Background())

	if len(maintainer.articleCalls) != 1 || len(maintainer.linkCalls) != 1 {
		t.Fatalf("maintenance calls = %d/%d, want one pass", len(maintainer.articleCalls), len(maintainer.linkCalls))
	}

	wantCutoff := clock.Add(-20 * time.Minute).Add(-articleRetention)
	if !maintainer.articleCalls[0].Equal(wantCutoff) {
		t.Errorf("article cutoff = %v, want %v", maintainer.articleCalls[0], wantCutoff)
	}

	// Next day fires again.
	clock = clock.Add(24 * time.Hour)
	s.Tick(context.Background())

	if len(maintainer.articleCalls) != 2 {
		t.Errorf("maintenance passes = %d, want 2 across two days", len(maintainer.articleCalls))
	}
}

func TestMaintenanceSkippedOutsideHour(t *testing.T) {
	maintainer := &fakeMaintainer{}
	s := testScheduler(fakeSettings{enabled: false}, &fakeRunner{}, maintainer)

	s.now = func() time.Time {
		return time.Date(2026, time.August, 30, maintenanceHour+1, 0, 0, 0, time.UTC)
	}
	s.Tick(context.Background())

	if len(maintainer.articleCalls) != 0 {
		t.Errorf("maintenance ran outside its hour")
	}
}
