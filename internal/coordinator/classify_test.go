package coordinator

import (
	"testing"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

func TestClassifyType(t *testing.T) {
	cases := []struct {
		name string
		p    domain.SightingPayload
		want domain.ContentType
	}{
		{"explicit type wins", domain.SightingPayload{Type: "tweet", URL: "https://youtu.be/dQw4w9WgXcQ"}, domain.TypeTweet},
		{"video url", domain.SightingPayload{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, domain.TypeVideo},
		{"live video url", domain.SightingPayload{URL: "https://youtu.be/dQw4w9WgXcQ", IsLive: true}, domain.TypeLivestream},
		{"tweet url", domain.SightingPayload{URL: "https://x.com/someone/status/1790000000000000000"}, domain.TypeTweet},
		{"unrecognized", domain.SightingPayload{URL: "https://example.com/article"}, domain.TypeUnknown},
		{"unlisted explicit type honored", domain.SightingPayload{Type: "podcast", URL: "https://youtu.be/dQw4w9WgXcQ"}, domain.ContentType("podcast")},
		{"blank explicit type falls through", domain.SightingPayload{Type: "  ", URL: "https://youtu.be/dQw4w9WgXcQ"}, domain.TypeVideo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyType(tc.p); got != tc.want {
				t.Fatalf("ClassifyType = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyState(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(2 * time.Hour)
	past := now.Add(-2 * time.Hour)

	cases := []struct {
		name string
		p    domain.SightingPayload
		want domain.LifecycleState
	}{
		{"explicit state wins", domain.SightingPayload{State: "scheduled", IsLive: true}, domain.StateScheduled},
		{"unlisted explicit state honored", domain.SightingPayload{State: "ended", IsLive: true}, domain.LifecycleState("ended")},
		{"live flag", domain.SightingPayload{IsLive: true}, domain.StateLive},
		{"future start is scheduled", domain.SightingPayload{ScheduledStartTime: &future}, domain.StateScheduled},
		{"past start is live", domain.SightingPayload{ScheduledStartTime: &past}, domain.StateLive},
		{"default published", domain.SightingPayload{}, domain.StatePublished},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyState(tc.p, now); got != tc.want {
				t.Fatalf("ClassifyState = %s, want %s", got, tc.want)
			}
		})
	}
}
