package sources

import (
	"context"
	"fmt"

	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

// Builder constructs a polling watcher from its config entry.
type Builder func(ctx context.Context, cfg WatcherConfig, log logger.Logger) (Watcher, error)

// BuilderRegistry maps watcher types to constructors.
type BuilderRegistry map[string]Builder

// DefaultRegistry returns the built-in watcher constructors. Webhook sources
// are push-based and intentionally have no poller here.
func DefaultRegistry() BuilderRegistry {
	return BuilderRegistry{
		TypeYouTubeAPI: func(ctx context.Context, cfg WatcherConfig, log logger.Logger) (Watcher, error) {
			return NewYouTubeWatcher(ctx, cfg, log)
		},
		TypeScraper: func(ctx context.Context, cfg WatcherConfig, log logger.Logger) (Watcher, error) {
			return NewScrapeWatcher(cfg, nil, log)
		},
	}
}

// BuildAll constructs every pollable watcher from the given configs. Webhook
// entries are skipped; unknown types fail.
func BuildAll(ctx context.Context, reg BuilderRegistry, cfgs []WatcherConfig, log logger.Logger) ([]Watcher, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}

	out := make([]Watcher, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Type == TypeWebhook {
			continue
		}
		build, ok := reg[cfg.Type]
		if !ok {
			return nil, fmt.Errorf("no builder for source type %q (id %q)", cfg.Type, cfg.ID)
		}
		w, err := build(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build source %q: %w", cfg.ID, err)
		}
		out = append(out, w)
	}
	return out, nil
}
