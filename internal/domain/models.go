package domain

import "time"

// Domain contains core models shared across the coordinator and its collaborators.

// ContentType is the semantic category assigned to a piece of content.
type ContentType string

const (
	TypeVideo      ContentType = "video"
	TypeLivestream ContentType = "livestream"
	TypeTweet      ContentType = "tweet"
	TypeUnknown    ContentType = "unknown"
)

// LifecycleState tracks where a piece of content is in its publication lifecycle.
type LifecycleState string

const (
	StateScheduled LifecycleState = "scheduled"
	StateLive      LifecycleState = "live"
	StatePublished LifecycleState = "published"
)

// SightingPayload carries the raw data reported by a discovery channel for a
// single observation. It is consumed once per ProcessContent call and never
// persisted as-is.
type SightingPayload struct {
	Type               string         `json:"type,omitempty"`
	State              string         `json:"state,omitempty"`
	URL                string         `json:"url,omitempty"`
	Title              string         `json:"title,omitempty"`
	PublishedAt        time.Time      `json:"published_at"`
	IsLive             bool           `json:"is_live,omitempty"`
	ScheduledStartTime *time.Time     `json:"scheduled_start_time,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Sighting is a complete report: which content, from which channel, with what data.
type Sighting struct {
	ID      string          `json:"id"`
	Source  string          `json:"source"`
	Payload SightingPayload `json:"payload"`
}

// ContentRecord is the persisted state for a unique content identifier.
// Created exactly once on first non-skipped processing; the source and
// LastUpdated fields are refreshed when a better source re-reports the same
// unannounced identifier. Records are never deleted by the coordinator.
type ContentRecord struct {
	ID          string         `json:"id"`
	Type        ContentType    `json:"type"`
	State       LifecycleState `json:"state"`
	Source      string         `json:"source"`
	Announced   bool           `json:"announced"`
	PublishedAt time.Time      `json:"published_at"`
	URL         string         `json:"url,omitempty"`
	Title       string         `json:"title,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Action is the final disposition of a processing attempt.
type Action string

const (
	ActionAnnounced Action = "announced"
	ActionSkip      Action = "skip"
)

// Skip reasons returned on Outcome.Reason.
const (
	ReasonAlreadyAnnounced   = "already_announced"
	ReasonSourcePriority     = "source_priority"
	ReasonContentTooOld      = "content_too_old"
	ReasonDuplicateDetected  = "duplicate_detected"
	ReasonRecentAnnouncement = "recent_discord_announcement"
)

// Outcome is the structured result returned to every caller of ProcessContent,
// joined callers included.
type Outcome struct {
	Action         Action    `json:"action"`
	Reason         string    `json:"reason,omitempty"`
	ContentID      string    `json:"content_id"`
	Source         string    `json:"source,omitempty"`
	ExistingSource string    `json:"existing_source,omitempty"`
	NewSource      string    `json:"new_source,omitempty"`
	FoundIn        string    `json:"found_in,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitzero"`
	// ReconcileNote records a degraded or skipped reconciliation check
	// ("no_duplicate_detector" or the underlying error text). The check itself
	// is fail-open, so the note is observability only.
	ReconcileNote string `json:"reconcile_note,omitempty"`
	// Delivered is the number of announcement sinks that accepted the event.
	Delivered int `json:"delivered,omitempty"`
}
