package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

const contentBucket = "content"

// boltStore implements ContentStore backed by BoltDB. Records are stored as
// JSON keyed by content identifier.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	freshnessWindow time.Duration
	recordTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed ContentStore.
func openBolt(path string, opts Options) (ContentStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(contentBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		freshnessWindow: opts.FreshnessWindow,
		recordTTL:       opts.RecordTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// GetContentState looks up the record for the given content identifier.
func (b *boltStore) GetContentState(id string) (*domain.ContentRecord, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	if err := b.maybeCleanupExpired(b.now()); err != nil {
		return nil, err
	}

	var rec *domain.ContentRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentBucket))
		if bucket == nil {
			return fmt.Errorf("content bucket missing")
		}

		value := bucket.Get([]byte(id))
		if value == nil {
			return nil
		}

		var decoded domain.ContentRecord
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("decode content record %q: %w", id, err)
		}
		rec = &decoded
		return nil
	})
	return rec, err
}

// IsNewContent reports whether publishedAt falls inside the acceptance window.
// A zero timestamp is accepted; the boundary itself is inclusive.
func (b *boltStore) IsNewContent(publishedAt time.Time) bool {
	if publishedAt.IsZero() {
		return true
	}
	return b.now().Sub(publishedAt) <= b.freshnessWindow
}

// AddContent creates the record for the given identifier.
func (b *boltStore) AddContent(id string, rec domain.ContentRecord) error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentBucket))
		if bucket == nil {
			return fmt.Errorf("content bucket missing")
		}
		if bucket.Get([]byte(id)) != nil {
			return fmt.Errorf("content %q already exists", id)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode content record %q: %w", id, err)
		}
		return bucket.Put([]byte(id), raw)
	})
}

// UpdateContentState rewrites the stored source and refresh time for id.
func (b *boltStore) UpdateContentState(id, source string, lastUpdated time.Time) error {
	return b.mutateRecord(id, func(rec *domain.ContentRecord) {
		rec.Source = source
		rec.LastUpdated = lastUpdated
	})
}

// MarkAsAnnounced flips the announced flag for id.
func (b *boltStore) MarkAsAnnounced(id string) error {
	return b.mutateRecord(id, func(rec *domain.ContentRecord) {
		rec.Announced = true
	})
}

func (b *boltStore) mutateRecord(id string, mutate func(*domain.ContentRecord)) error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentBucket))
		if bucket == nil {
			return fmt.Errorf("content bucket missing")
		}
		value := bucket.Get([]byte(id))
		if value == nil {
			return fmt.Errorf("content %q not found", id)
		}
		var rec domain.ContentRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode content record %q: %w", id, err)
		}
		mutate(&rec)
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode content record %q: %w", id, err)
		}
		return bucket.Put([]byte(id), raw)
	})
}

// maybeCleanupExpired removes records past their retention TTL on a fixed
// cadence to keep the database bounded. Retention is a store-side policy; the
// coordinator itself never deletes records.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	cutoff := now.Add(-b.recordTTL)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentBucket))
		if bucket == nil {
			return fmt.Errorf("content bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec domain.ContentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				// Unreadable entry; drop it rather than poison every cleanup pass.
				if err := cursor.Delete(); err != nil {
					return err
				}
				continue
			}
			if rec.LastUpdated.Before(cutoff) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}
