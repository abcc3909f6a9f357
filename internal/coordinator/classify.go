package coordinator

import (
	"strings"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
)

// ClassifyType derives the content type from the payload. An explicit type on
// the payload always wins, even one outside the known set, so new discovery
// channels can introduce types without a pipeline change; otherwise the URL
// shape decides.
func ClassifyType(p domain.SightingPayload) domain.ContentType {
	if explicit := strings.TrimSpace(p.Type); explicit != "" {
		return domain.ContentType(explicit)
	}

	switch {
	case platform.IsVideoURL(p.URL):
		if p.IsLive {
			return domain.TypeLivestream
		}
		return domain.TypeVideo
	case platform.IsTweetURL(p.URL):
		return domain.TypeTweet
	}
	return domain.TypeUnknown
}

// ClassifyState derives the lifecycle state from the payload. An explicit
// state always wins, then liveness, then a future scheduled start.
func ClassifyState(p domain.SightingPayload, now time.Time) domain.LifecycleState {
	if explicit := strings.TrimSpace(p.State); explicit != "" {
		return domain.LifecycleState(explicit)
	}

	if p.IsLive {
		return domain.StateLive
	}
	if p.ScheduledStartTime != nil {
		if p.ScheduledStartTime.After(now) {
			return domain.StateScheduled
		}
		return domain.StateLive
	}
	return domain.StatePublished
}
