package storage

import (
	"testing"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

func TestBoltStoreRoundTripsRecords(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/content.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	rec, err := store.GetContentState("vid-1")
	if err != nil {
		t.Fatalf("GetContentState: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for unknown id, got %+v", rec)
	}

	created := domain.ContentRecord{
		ID:          "vid-1",
		Type:        domain.TypeVideo,
		State:       domain.StatePublished,
		Source:      "scraper",
		PublishedAt: time.Now().UTC(),
		URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		CreatedAt:   time.Now().UTC(),
		LastUpdated: time.Now().UTC(),
	}
	if err := store.AddContent("vid-1", created); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := store.AddContent("vid-1", created); err == nil {
		t.Fatalf("expected error when re-adding existing id")
	}

	if err := store.UpdateContentState("vid-1", "webhook", time.Now().UTC()); err != nil {
		t.Fatalf("UpdateContentState: %v", err)
	}
	if err := store.MarkAsAnnounced("vid-1"); err != nil {
		t.Fatalf("MarkAsAnnounced: %v", err)
	}

	rec, err = store.GetContentState("vid-1")
	if err != nil {
		t.Fatalf("GetContentState after mutate: %v", err)
	}
	if rec == nil || rec.Source != "webhook" || !rec.Announced {
		t.Fatalf("unexpected record after mutate: %+v", rec)
	}
	if rec.Type != domain.TypeVideo {
		t.Fatalf("record type lost on round trip: %+v", rec)
	}
}

func TestBoltStoreFreshnessBoundaryIsInclusive(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/content.db", Options{
		FreshnessWindow: time.Hour,
		RecordTTL:       time.Hour,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if !store.IsNewContent(now.Add(-time.Hour)) {
		t.Fatalf("content exactly at the boundary must be accepted")
	}
	if store.IsNewContent(now.Add(-time.Hour - time.Second)) {
		t.Fatalf("content past the boundary must be rejected")
	}
	if !store.IsNewContent(time.Time{}) {
		t.Fatalf("zero publishedAt must be accepted")
	}
}

func TestBoltStoreCleanupRemovesStaleRecords(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/content.db", Options{
		FreshnessWindow: time.Hour,
		RecordTTL:       time.Minute,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	stale := domain.ContentRecord{ID: "old", LastUpdated: time.Now().Add(-time.Hour)}
	fresh := domain.ContentRecord{ID: "new", LastUpdated: time.Now()}
	if err := store.AddContent("old", stale); err != nil {
		t.Fatalf("AddContent old: %v", err)
	}
	if err := store.AddContent("new", fresh); err != nil {
		t.Fatalf("AddContent new: %v", err)
	}

	// Fast-forward the cleanup cadence so the next lookup triggers a sweep.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Minute).Unix())

	rec, err := store.GetContentState("old")
	if err != nil {
		t.Fatalf("GetContentState: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected stale record to be swept, got %+v", rec)
	}
	rec, err = store.GetContentState("new")
	if err != nil || rec == nil {
		t.Fatalf("fresh record should survive cleanup, rec=%v err=%v", rec, err)
	}
}

func TestNewStoreSupportsDisabled(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.AddContent("x", domain.ContentRecord{ID: "x"}); err != nil {
		t.Fatalf("memory store AddContent: %v", err)
	}
	rec, err := store.GetContentState("x")
	if err != nil || rec == nil {
		t.Fatalf("memory store lookup, rec=%v err=%v", rec, err)
	}
}
