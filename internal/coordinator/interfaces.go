package coordinator

import (
	"context"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/announcer"
	"github.com/sightcast-hq/sightcast-coordinator/internal/dedup"
	"github.com/sightcast-hq/sightcast-coordinator/internal/discord"
	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

// ContentStore is the state-store surface the engine depends on.
type ContentStore interface {
	GetContentState(id string) (*domain.ContentRecord, error)
	IsNewContent(publishedAt time.Time) bool
	AddContent(id string, rec domain.ContentRecord) error
	UpdateContentState(id, source string, lastUpdated time.Time) error
	MarkAsAnnounced(id string) error
}

// DuplicateDetector is the dedup surface the engine depends on. All checks
// here are advisory: the pipeline treats their errors as fail-open.
type DuplicateDetector interface {
	IsDuplicateWithFingerprint(p domain.SightingPayload) (bool, error)
	IsDuplicate(url string) (bool, error)
	MarkAsSeenWithFingerprint(p domain.SightingPayload) error
	MarkAsSeen(url string) error
	HasVideoID(id string) (bool, error)
	HasTweetID(id string) (bool, error)
	IsDuplicateByURL(url string) (bool, error)
	ScanChannelForVideos(ctx context.Context, ch discord.Channel, limit int) (dedup.VideoScanResult, error)
	ScanChannelForTweets(ctx context.Context, ch discord.Channel, limit int) (dedup.TweetScanResult, error)
}

// ContentAnnouncer performs the actual downstream notification. Its failures
// are the one hard error the pipeline must surface to the caller.
type ContentAnnouncer interface {
	AnnounceContent(ctx context.Context, a announcer.Announcement) (announcer.Result, error)
}

// Messenger is the chat-platform client used only by the reconciliation
// bootstrap scan.
type Messenger = discord.Messenger
