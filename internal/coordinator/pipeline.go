package coordinator

import (
	"context"
	"fmt"

	"github.com/sightcast-hq/sightcast-coordinator/internal/announcer"
	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
)

// Reconciliation sources reported on skip outcomes.
const (
	foundInVideoDetector = "youtube_duplicate_detector"
	foundInTweetDetector = "tweet_duplicate_detector"
	foundInURLMatch      = "url_match"

	noDetectorNote = "no_duplicate_detector"
)

// check is the result of one advisory collaborator call. A non-nil Err means
// the call degraded and Value is the fail-open default; the policy is visible
// at the call site instead of buried in error handling.
type check struct {
	Value bool
	Err   error
}

func okCheck(v bool) check          { return check{Value: v} }
func degradedCheck(err error) check { return check{Err: err} }

// reconcile is the discriminated result of the external-history check. Note
// carries the degradation reason when the check could not run or failed; the
// semantics stay fail-open either way.
type reconcile struct {
	Found   bool
	FoundIn string
	Note    string
}

// runPipeline executes the skip/classify/persist/announce sequence exactly
// once per non-joined ProcessContent call. The first matching skip condition
// short-circuits.
func (e *Engine) runPipeline(ctx context.Context, id, source string, p domain.SightingPayload) (*domain.Outcome, error) {
	// 1. Existing-state lookup.
	existing, err := e.store.GetContentState(id)
	if err != nil {
		return nil, fmt.Errorf("lookup content state %q: %w", id, err)
	}
	if existing != nil {
		if existing.Announced {
			e.metrics.duplicatesSkipped.Add(1)
			return &domain.Outcome{
				Action:         domain.ActionSkip,
				Reason:         domain.ReasonAlreadyAnnounced,
				ContentID:      id,
				ExistingSource: existing.Source,
				NewSource:      source,
			}, nil
		}
		if !e.priorities.ShouldProcessFromSource(existing.Source, source) {
			e.metrics.sourcePrioritySkips.Add(1)
			return &domain.Outcome{
				Action:         domain.ActionSkip,
				Reason:         domain.ReasonSourcePriority,
				ContentID:      id,
				ExistingSource: existing.Source,
				NewSource:      source,
			}, nil
		}
		// Equal-or-better source: take ownership of the unannounced record.
		best := e.priorities.SelectBestSource(source, existing.Source)
		if err := e.store.UpdateContentState(id, best, e.now()); err != nil {
			return nil, fmt.Errorf("update content state %q: %w", id, err)
		}
	}

	// 2. Freshness check, only for genuinely new identifiers.
	if existing == nil && !e.store.IsNewContent(p.PublishedAt) {
		return &domain.Outcome{
			Action:      domain.ActionSkip,
			Reason:      domain.ReasonContentTooOld,
			ContentID:   id,
			Source:      source,
			PublishedAt: p.PublishedAt,
		}, nil
	}

	// 3. Duplicate detection: fingerprint preferred, URL fallback, fail-open.
	if dup := e.checkDuplicate(id, p); dup.Value {
		e.metrics.duplicatesSkipped.Add(1)
		e.markSeen(id, p)
		return &domain.Outcome{
			Action:    domain.ActionSkip,
			Reason:    domain.ReasonDuplicateDetected,
			ContentID: id,
			Source:    source,
		}, nil
	}

	// 4. External reconciliation against the chat platform's own history.
	rec := e.reconcileAgainstHistory(id, p)
	if rec.Found {
		e.markSeen(id, p)
		return &domain.Outcome{
			Action:    domain.ActionSkip,
			Reason:    domain.ReasonRecentAnnouncement,
			ContentID: id,
			FoundIn:   rec.FoundIn,
		}, nil
	}

	// 5. Classification.
	ctype := ClassifyType(p)
	state := ClassifyState(p, e.now())

	// 6. Persistence for genuinely new identifiers.
	if existing == nil {
		metadata := p.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		now := e.now()
		record := domain.ContentRecord{
			ID:          id,
			Type:        ctype,
			State:       state,
			Source:      source,
			PublishedAt: p.PublishedAt,
			URL:         p.URL,
			Title:       p.Title,
			Metadata:    metadata,
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := e.store.AddContent(id, record); err != nil {
			return nil, fmt.Errorf("persist content %q: %w", id, err)
		}
	}

	// 7. Announcement. This is the one collaborator failure that must surface.
	result, err := e.announcer.AnnounceContent(ctx, announcer.NewAnnouncement(id, source, ctype, state, p, e.now()))
	if err != nil {
		return nil, fmt.Errorf("announce content %q: %w", id, err)
	}

	// 8. Post-announce bookkeeping.
	e.markSeen(id, p)
	if err := e.store.MarkAsAnnounced(id); err != nil {
		return nil, fmt.Errorf("mark content %q announced: %w", id, err)
	}
	e.metrics.totalProcessed.Add(1)

	e.log.InfoObj("content announced", "announcement", map[string]any{
		"content_id":   id,
		"source":       source,
		"content_type": string(ctype),
		"delivered":    result.Delivered,
	})

	return &domain.Outcome{
		Action:        domain.ActionAnnounced,
		ContentID:     id,
		Source:        source,
		ReconcileNote: rec.Note,
		Delivered:     result.Delivered,
	}, nil
}

// checkDuplicate runs the fingerprint check, falling back to the URL check,
// and degrades to not-a-duplicate on any error so a dedup outage never blocks
// a legitimate announcement.
func (e *Engine) checkDuplicate(id string, p domain.SightingPayload) check {
	if e.detector == nil {
		return okCheck(false)
	}

	dup, err := e.detector.IsDuplicateWithFingerprint(p)
	if err == nil {
		return okCheck(dup)
	}

	e.log.WarnObj("fingerprint duplicate check failed", "dedup_degraded", map[string]any{
		"content_id": id,
		"error":      err.Error(),
	})

	if p.URL != "" {
		dup, urlErr := e.detector.IsDuplicate(p.URL)
		if urlErr == nil {
			return okCheck(dup)
		}
		e.log.WarnObj("url duplicate check failed", "dedup_degraded", map[string]any{
			"content_id": id,
			"error":      urlErr.Error(),
		})
	}

	return degradedCheck(err)
}

// reconcileAgainstHistory asks whether the content already appears in the
// external channel history, compensating for state-store data loss. Platform
// identifiers are checked before falling back to URL matching. Every failure
// mode is fail-open with the reason retained on the result.
func (e *Engine) reconcileAgainstHistory(id string, p domain.SightingPayload) reconcile {
	if e.detector == nil {
		return reconcile{Note: noDetectorNote}
	}

	if videoID, ok := videoIDFor(id, p.URL); ok {
		found, err := e.detector.HasVideoID(videoID)
		if err != nil {
			return e.degradedReconcile(id, "video id reconciliation", err)
		}
		if found {
			return reconcile{Found: true, FoundIn: foundInVideoDetector}
		}
	}

	if tweetID, ok := tweetIDFor(id, p.URL); ok {
		found, err := e.detector.HasTweetID(tweetID)
		if err != nil {
			return e.degradedReconcile(id, "tweet id reconciliation", err)
		}
		if found {
			return reconcile{Found: true, FoundIn: foundInTweetDetector}
		}
	}

	if p.URL != "" {
		found, err := e.detector.IsDuplicateByURL(p.URL)
		if err != nil {
			return e.degradedReconcile(id, "url reconciliation", err)
		}
		if found {
			return reconcile{Found: true, FoundIn: foundInURLMatch}
		}
	}

	return reconcile{}
}

func (e *Engine) degradedReconcile(id, stage string, err error) reconcile {
	e.log.WarnObj("reconciliation check degraded", "reconcile_degraded", map[string]any{
		"content_id": id,
		"stage":      stage,
		"error":      err.Error(),
	})
	return reconcile{Note: err.Error()}
}

// markSeen records the content in the duplicate detector, fingerprint first
// with URL fallback. Best-effort; errors are logged and swallowed.
func (e *Engine) markSeen(id string, p domain.SightingPayload) {
	if e.detector == nil {
		return
	}

	if err := e.detector.MarkAsSeenWithFingerprint(p); err == nil {
		return
	} else if p.URL == "" {
		e.log.WarnObj("mark-as-seen failed", "dedup_mark_failed", map[string]any{
			"content_id": id,
			"error":      err.Error(),
		})
		return
	}

	if err := e.detector.MarkAsSeen(p.URL); err != nil {
		e.log.WarnObj("mark-as-seen failed", "dedup_mark_failed", map[string]any{
			"content_id": id,
			"error":      err.Error(),
		})
	}
}

// videoIDFor resolves the platform video id for reconciliation: the URL is
// authoritative, with the raw identifier accepted when it already looks like
// a video id.
func videoIDFor(id, url string) (string, bool) {
	if vid, ok := platform.ExtractVideoID(url); ok {
		return vid, true
	}
	if len(id) == 11 {
		return id, true
	}
	return "", false
}

func tweetIDFor(id, url string) (string, bool) {
	if tid, ok := platform.ExtractTweetID(url); ok {
		return tid, true
	}
	if isDigits(id) {
		return id, true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
