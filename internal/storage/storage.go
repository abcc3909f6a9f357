package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

// Package storage persists per-content records for the coordination engine.

// ContentStore is the state-store contract the coordinator depends on.
type ContentStore interface {
	Close() error
	// GetContentState returns the record for id, or nil when unknown.
	GetContentState(id string) (*domain.ContentRecord, error)
	// IsNewContent reports whether publishedAt falls inside the acceptance
	// window. The boundary is inclusive.
	IsNewContent(publishedAt time.Time) bool
	// AddContent creates the record for id. Records are created once per
	// unique identifier.
	AddContent(id string, rec domain.ContentRecord) error
	// UpdateContentState rewrites the record's source and refresh time.
	UpdateContentState(id, source string, lastUpdated time.Time) error
	// MarkAsAnnounced flips the announced flag. The flag is monotonic; the
	// store never resets it.
	MarkAsAnnounced(id string) error
}

// Options controls retention and freshness characteristics for concrete stores.
type Options struct {
	FreshnessWindow time.Duration
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultFreshnessWindow = 24 * time.Hour
	defaultRecordTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (ContentStore, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = defaultFreshnessWindow
	}
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}
