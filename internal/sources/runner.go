package sources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

// Runner drives the polling discovery channels, feeding every observed
// sighting into the processor.
type Runner struct {
	watchers  []Watcher
	intervals map[string]time.Duration
	processor Processor
	log       logger.Logger
}

// NewRunner wires watchers to the processor. Poll cadence comes from the
// matching config entry; watchers without one poll at the default interval.
func NewRunner(watchers []Watcher, cfgs []WatcherConfig, processor Processor, log logger.Logger) (*Runner, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	intervals := make(map[string]time.Duration, len(cfgs))
	for _, cfg := range cfgs {
		intervals[cfg.ID] = cfg.PollInterval()
	}

	return &Runner{
		watchers:  watchers,
		intervals: intervals,
		processor: processor,
		log:       log,
	}, nil
}

// Run polls every watcher on its own cadence until the context is cancelled.
// Each watcher gets an immediate first poll.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.watchers) == 0 {
		r.log.WarnObj("no polling sources configured; runner idle", "runner_state", nil)
		<-ctx.Done()
		return ctx.Err()
	}

	var wg sync.WaitGroup
	for _, w := range r.watchers {
		wg.Add(1)
		go func(w Watcher) {
			defer wg.Done()
			r.pollLoop(ctx, w)
		}(w)
	}
	wg.Wait()
	return ctx.Err()
}

func (r *Runner) pollLoop(ctx context.Context, w Watcher) {
	interval, ok := r.intervals[w.ID()]
	if !ok {
		interval = defaultPollIntervalSeconds * time.Second
	}

	if err := r.RunOnce(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
		r.log.ErrorObj("initial poll failed", "poll_error", map[string]any{
			"source_id": w.ID(),
			"error":     err.Error(),
		})
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
				r.log.ErrorObj("scheduled poll failed", "poll_error", map[string]any{
					"source_id": w.ID(),
					"error":     err.Error(),
				})
			}
		}
	}
}

// RunOnce performs a single poll of one watcher and submits every sighting.
// Per-sighting processing errors are collected, not fatal to the pass.
func (r *Runner) RunOnce(ctx context.Context, w Watcher) error {
	sightings, err := w.Poll(ctx)
	if err != nil {
		return fmt.Errorf("poll source %s: %w", w.ID(), err)
	}

	errs := make([]error, 0, len(sightings))
	announced := 0
	for _, s := range sightings {
		outcome, err := r.processor.ProcessContent(ctx, s.ID, s.Source, s.Payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("process %s: %w", s.ID, err))
			continue
		}
		if outcome.Action == domain.ActionAnnounced {
			announced++
		}
	}

	r.log.InfoObj("poll pass completed", "poll_result", map[string]any{
		"source_id": w.ID(),
		"sightings": len(sightings),
		"announced": announced,
		"errors":    len(errs),
	})

	return errors.Join(errs...)
}
