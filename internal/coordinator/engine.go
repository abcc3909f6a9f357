package coordinator

// The coordination engine serializes concurrent processing attempts per
// content identifier, arbitrates between discovery sources, and guarantees
// at-most-once announcement for each unique piece of content.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

// ErrEmptyContentID rejects processing attempts with no identifier. Validation
// happens before any lock bookkeeping.
var ErrEmptyContentID = errors.New("content id must not be empty")

// ChannelSet names the chat channels the reconciliation bootstrap scans.
type ChannelSet struct {
	Video  string
	Social map[string]string // category -> channel id (posts, replies, quotes, retweets)
}

// Options configures an Engine.
type Options struct {
	// LockTimeout bounds how long a processing-lock entry may linger before
	// it is forcibly released. Zero disables the safety valve; the engine
	// still functions, entries are then only released on completion.
	LockTimeout time.Duration
	Priorities  []string
	Channels    ChannelSet
	Logger      logger.Logger
}

// inflight is the shared completion handle joined by concurrent callers for
// the same identifier.
type inflight struct {
	done    chan struct{}
	outcome *domain.Outcome
	err     error
	timer   *time.Timer
}

// Engine is the content coordination engine.
type Engine struct {
	store      ContentStore
	detector   DuplicateDetector
	announcer  ContentAnnouncer
	messenger  Messenger
	priorities *SourcePriorities
	channels   ChannelSet

	mu          sync.Mutex
	processing  map[string]*inflight
	lockTimeout time.Duration

	metrics metrics
	log     logger.Logger
	now     func() time.Time
}

// New builds an engine around its collaborators. The store and announcer are
// required; the detector and messenger are optional and degrade the related
// checks when absent.
func New(store ContentStore, detector DuplicateDetector, ann ContentAnnouncer, messenger Messenger, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("content store must not be nil")
	}
	if ann == nil {
		return nil, fmt.Errorf("content announcer must not be nil")
	}

	priorities, err := NewSourcePriorities(opts.Priorities)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = &logger.NopLogger{}
	}

	return &Engine{
		store:       store,
		detector:    detector,
		announcer:   ann,
		messenger:   messenger,
		priorities:  priorities,
		channels:    opts.Channels,
		processing:  make(map[string]*inflight),
		lockTimeout: opts.LockTimeout,
		log:         log,
		now:         time.Now,
	}, nil
}

// ProcessContent is the engine's sole primary entry point. For a given
// identifier, at most one pipeline executes at a time; callers that race in
// while one is running join its outcome instead of starting a second run.
func (e *Engine) ProcessContent(ctx context.Context, id, source string, payload domain.SightingPayload) (*domain.Outcome, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyContentID
	}

	e.mu.Lock()
	if entry, exists := e.processing[id]; exists {
		e.metrics.raceConditionsPrevented.Add(1)
		e.mu.Unlock()
		e.log.DebugObj("joined in-flight processing", "processing_join", map[string]any{
			"content_id": id,
			"source":     source,
		})
		return e.await(ctx, entry)
	}

	entry := &inflight{done: make(chan struct{})}
	e.processing[id] = entry
	if e.lockTimeout > 0 {
		// The timer only releases the bookkeeping entry so a stuck pipeline
		// cannot block the identifier forever. It never cancels the work.
		entry.timer = time.AfterFunc(e.lockTimeout, func() {
			if e.release(id, entry) {
				e.log.WarnObj("processing lock timed out", "lock_timeout", map[string]any{
					"content_id": id,
					"timeout_ms": e.lockTimeout.Milliseconds(),
				})
			}
		})
	}
	e.mu.Unlock()

	outcome, err := e.runPipeline(ctx, id, source, payload)
	if err != nil {
		e.metrics.processingErrors.Add(1)
	}

	entry.outcome = outcome
	entry.err = err
	close(entry.done)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	e.release(id, entry)

	return outcome, err
}

// await blocks until the joined pipeline finishes. The caller's context only
// abandons the wait; it does not cancel the underlying pipeline.
func (e *Engine) await(ctx context.Context, entry *inflight) (*domain.Outcome, error) {
	select {
	case <-entry.done:
		return entry.outcome, entry.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release removes the entry for id when it is still the registered one.
// Returns false when the entry was already replaced or cleared.
func (e *Engine) release(id string, entry *inflight) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if current, ok := e.processing[id]; ok && current == entry {
		delete(e.processing, id)
		return true
	}
	return false
}

// UpdateSourcePriority replaces the trust ordering wholesale.
func (e *Engine) UpdateSourcePriority(order []string) error {
	if err := e.priorities.Update(order); err != nil {
		return err
	}
	e.log.InfoObj("source priority updated", "source_priority", order)
	return nil
}

// Stats reports the engine counters plus current queue depth.
type Stats struct {
	Metrics        MetricsSnapshot `json:"metrics"`
	QueueSize      int             `json:"queue_size"`
	SourcePriority []string        `json:"source_priority"`
}

// GetStats returns a snapshot of the engine's counters and queue depth.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	size := len(e.processing)
	e.mu.Unlock()

	return Stats{
		Metrics:        e.metrics.snapshot(),
		QueueSize:      size,
		SourcePriority: e.priorities.Order(),
	}
}

// QueueInfo describes the identifiers currently holding a processing lock.
type QueueInfo struct {
	Size       int      `json:"size"`
	ContentIDs []string `json:"content_ids"`
}

// GetQueueInfo lists the in-flight identifiers.
func (e *Engine) GetQueueInfo() QueueInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.processing))
	for id := range e.processing {
		ids = append(ids, id)
	}
	return QueueInfo{Size: len(ids), ContentIDs: ids}
}

// ResetMetrics zeroes every counter.
func (e *Engine) ResetMetrics() {
	e.metrics.reset()
	e.log.InfoObj("engine metrics reset", "metrics", e.metrics.snapshot())
}

// ForceClearQueue drops every processing-lock entry immediately and returns
// how many were cleared. Running pipelines are not interrupted; their
// completion handles still resolve for joined callers.
func (e *Engine) ForceClearQueue(reason string) int {
	e.mu.Lock()
	cleared := len(e.processing)
	for id, entry := range e.processing {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(e.processing, id)
	}
	e.mu.Unlock()

	if cleared > 0 {
		e.log.WarnObj("processing queue force-cleared", "queue_clear", map[string]any{
			"cleared": cleared,
			"reason":  reason,
		})
	}
	return cleared
}

// Destroy drains the lock map and stops all timers. Outstanding pipelines run
// to completion on their own goroutines.
func (e *Engine) Destroy() {
	cleared := e.ForceClearQueue("destroy")
	e.log.InfoObj("engine destroyed", "engine_shutdown", map[string]any{
		"cleared": cleared,
	})
}
