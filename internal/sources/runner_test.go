package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

func nopTestLogger() logger.Logger { return &logger.NopLogger{} }

type fakeWatcher struct {
	id        string
	sightings []domain.Sighting
	err       error
}

func (w *fakeWatcher) ID() string     { return w.id }
func (w *fakeWatcher) Source() string { return "api" }

func (w *fakeWatcher) Poll(ctx context.Context) ([]domain.Sighting, error) {
	return w.sightings, w.err
}

func TestRunnerRunOnce(t *testing.T) {
	proc := &fakeProcessor{}
	watcher := &fakeWatcher{id: "poller", sightings: []domain.Sighting{
		{ID: "vid-1", Source: "api", Payload: domain.SightingPayload{Title: "one"}},
		{ID: "vid-2", Source: "api", Payload: domain.SightingPayload{Title: "two"}},
	}}

	runner, err := NewRunner([]Watcher{watcher}, nil, proc, nopTestLogger())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.RunOnce(context.Background(), watcher); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(proc.calls) != 2 {
		t.Fatalf("processor called %d times, want 2", len(proc.calls))
	}
}

func TestRunnerRunOncePollFailure(t *testing.T) {
	proc := &fakeProcessor{}
	watcher := &fakeWatcher{id: "poller", err: errors.New("quota exceeded")}

	runner, err := NewRunner([]Watcher{watcher}, nil, proc, nopTestLogger())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.RunOnce(context.Background(), watcher); err == nil {
		t.Fatal("expected poll error")
	}
	if len(proc.calls) != 0 {
		t.Fatal("processor should not run when the poll fails")
	}
}

func TestRunnerRunOnceCollectsProcessingErrors(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("sinks down")}
	watcher := &fakeWatcher{id: "poller", sightings: []domain.Sighting{
		{ID: "vid-1", Source: "api"},
		{ID: "vid-2", Source: "api"},
	}}

	runner, err := NewRunner([]Watcher{watcher}, nil, proc, nopTestLogger())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	err = runner.RunOnce(context.Background(), watcher)
	if err == nil {
		t.Fatal("expected joined processing errors")
	}
	// Both sightings still submitted despite failures.
	if len(proc.calls) != 2 {
		t.Fatalf("processor called %d times, want 2", len(proc.calls))
	}
}

func TestRunnerRequiresProcessor(t *testing.T) {
	if _, err := NewRunner(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil processor")
	}
}

func TestBuildAllSkipsWebhookAndRejectsUnknown(t *testing.T) {
	reg := DefaultRegistry()

	cfgs := []WatcherConfig{
		sanitizeWatcherConfig(WatcherConfig{ID: "push", Type: TypeWebhook}),
		sanitizeWatcherConfig(WatcherConfig{
			ID:      "fan-page",
			Type:    TypeScraper,
			Scraper: &ScraperWatcherConfig{URL: "https://example.com"},
		}),
	}
	watchers, err := BuildAll(context.Background(), reg, cfgs, nopTestLogger())
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(watchers) != 1 || watchers[0].ID() != "fan-page" {
		t.Fatalf("watchers = %v", watchers)
	}

	if _, err := BuildAll(context.Background(), reg, []WatcherConfig{{ID: "x", Type: "carrier-pigeon"}}, nil); err == nil {
		t.Fatal("expected unknown type error")
	}
}
