package dedup

// Package dedup maintains the fingerprint, URL, and platform-id sets used for
// multi-layer duplicate detection, plus the channel-history scans that rebuild
// those sets from the chat platform after a restart.

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic fingerprinting
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
)

// Detector tracks already-seen content across three keyspaces: derived
// fingerprints, raw URLs, and platform-native identifiers.
type Detector struct {
	mu           sync.RWMutex
	fingerprints map[string]struct{}
	urls         map[string]struct{}
	videoIDs     map[string]struct{}
	tweetIDs     map[string]struct{}
}

// NewDetector builds an empty detector.
func NewDetector() *Detector {
	return &Detector{
		fingerprints: make(map[string]struct{}),
		urls:         make(map[string]struct{}),
		videoIDs:     make(map[string]struct{}),
		tweetIDs:     make(map[string]struct{}),
	}
}

// Fingerprint derives the content-based duplicate key for a sighting payload.
// Distinct from the raw identifier so the same content reported under
// different ids still collides.
func Fingerprint(p domain.SightingPayload) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(p.Type)),
		normalizeURL(p.URL),
		strings.ToLower(strings.TrimSpace(p.Title)),
	}
	if !p.PublishedAt.IsZero() {
		parts = append(parts, p.PublishedAt.UTC().Format("2006-01-02"))
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// IsDuplicateWithFingerprint checks the payload's derived fingerprint.
func (d *Detector) IsDuplicateWithFingerprint(p domain.SightingPayload) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.fingerprints[Fingerprint(p)]
	return ok, nil
}

// IsDuplicate checks the normalized URL set.
func (d *Detector) IsDuplicate(url string) (bool, error) {
	if strings.TrimSpace(url) == "" {
		return false, fmt.Errorf("url is empty")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.urls[normalizeURL(url)]
	return ok, nil
}

// MarkAsSeenWithFingerprint records the payload's fingerprint, URL, and any
// platform id it carries.
func (d *Detector) MarkAsSeenWithFingerprint(p domain.SightingPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fingerprints[Fingerprint(p)] = struct{}{}
	d.markURLLocked(p.URL)
	return nil
}

// MarkAsSeen records a raw URL.
func (d *Detector) MarkAsSeen(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("url is empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markURLLocked(url)
	return nil
}

func (d *Detector) markURLLocked(url string) {
	if strings.TrimSpace(url) == "" {
		return
	}
	d.urls[normalizeURL(url)] = struct{}{}
	if id, ok := platform.ExtractVideoID(url); ok {
		d.videoIDs[id] = struct{}{}
	}
	if id, ok := platform.ExtractTweetID(url); ok {
		d.tweetIDs[id] = struct{}{}
	}
}

// HasVideoID reports whether the platform video id is known.
func (d *Detector) HasVideoID(id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.videoIDs[id]
	return ok, nil
}

// HasTweetID reports whether the platform post id is known.
func (d *Detector) HasTweetID(id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tweetIDs[id]
	return ok, nil
}

// IsDuplicateByURL checks the URL set without touching fingerprints.
func (d *Detector) IsDuplicateByURL(url string) (bool, error) {
	return d.IsDuplicate(url)
}

// Sizes returns the cardinality of each keyspace, for stats and logs.
func (d *Detector) Sizes() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string]int{
		"fingerprints": len(d.fingerprints),
		"urls":         len(d.urls),
		"video_ids":    len(d.videoIDs),
		"tweet_ids":    len(d.tweetIDs),
	}
}

// normalizeURL strips scheme noise and trailing slashes so trivially different
// spellings of the same link collide.
func normalizeURL(url string) string {
	u := strings.ToLower(strings.TrimSpace(url))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimRight(u, "/")
}
