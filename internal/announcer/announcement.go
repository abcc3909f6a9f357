package announcer

import (
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

// Announcement is the enriched payload delivered to every sink when content
// clears the coordination pipeline.
type Announcement struct {
	ContentID     string                `json:"content_id"`
	Source        string                `json:"source"`
	ContentType   domain.ContentType    `json:"content_type"`
	State         domain.LifecycleState `json:"state,omitempty"`
	Title         string                `json:"title,omitempty"`
	URL           string                `json:"url,omitempty"`
	PublishedAt   time.Time             `json:"published_at,omitzero"`
	DetectionTime time.Time             `json:"detection_time"`
	Metadata      map[string]any        `json:"metadata,omitempty"`
}

// Result reports how an announcement fared across the configured sinks.
type Result struct {
	Delivered int `json:"delivered"`
}

// NewAnnouncement enriches a sighting payload with the coordination context.
func NewAnnouncement(id, source string, ctype domain.ContentType, state domain.LifecycleState, p domain.SightingPayload, detectedAt time.Time) Announcement {
	return Announcement{
		ContentID:     id,
		Source:        source,
		ContentType:   ctype,
		State:         state,
		Title:         p.Title,
		URL:           p.URL,
		PublishedAt:   p.PublishedAt,
		DetectionTime: detectedAt.UTC(),
		Metadata:      p.Metadata,
	}
}
