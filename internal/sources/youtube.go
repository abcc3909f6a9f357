package sources

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
)

// YouTubeWatcher polls the Data API for recent uploads and livestreams on a
// single channel. Re-observing already announced videos is fine; the engine
// skips them.
type YouTubeWatcher struct {
	id        string
	source    string
	channelID string
	max       int64
	search    searchLister
	log       logger.Logger
}

// searchLister is the slice of the Data API the watcher consumes.
type searchLister interface {
	Recent(ctx context.Context, channelID string, max int64) ([]*youtube.SearchResult, error)
}

// NewYouTubeWatcher builds a Data API watcher from its config entry.
func NewYouTubeWatcher(ctx context.Context, cfg WatcherConfig, log logger.Logger) (*YouTubeWatcher, error) {
	if cfg.YouTube == nil {
		return nil, fmt.Errorf("youtube config missing for source %q", cfg.ID)
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(cfg.YouTube.APIKey))
	if err != nil {
		return nil, fmt.Errorf("init youtube service: %w", err)
	}

	if log == nil {
		log = &logger.NopLogger{}
	}
	return &YouTubeWatcher{
		id:        cfg.ID,
		source:    cfg.Source,
		channelID: cfg.YouTube.ChannelID,
		max:       cfg.YouTube.MaxResults,
		search:    &apiSearchLister{svc: svc},
		log:       log,
	}, nil
}

func (w *YouTubeWatcher) ID() string     { return w.id }
func (w *YouTubeWatcher) Source() string { return w.source }

// Poll lists the channel's most recent videos, newest first.
func (w *YouTubeWatcher) Poll(ctx context.Context) ([]domain.Sighting, error) {
	items, err := w.search.Recent(ctx, w.channelID, w.max)
	if err != nil {
		return nil, fmt.Errorf("youtube search for channel %s: %w", w.channelID, err)
	}

	out := make([]domain.Sighting, 0, len(items))
	for _, item := range items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		out = append(out, w.toSighting(item))
	}
	return out, nil
}

func (w *YouTubeWatcher) toSighting(item *youtube.SearchResult) domain.Sighting {
	payload := domain.SightingPayload{
		URL:   platform.WatchURL(item.Id.VideoId),
		Title: item.Snippet.Title,
		Metadata: map[string]any{
			"channel_id":    item.Snippet.ChannelId,
			"channel_title": item.Snippet.ChannelTitle,
		},
	}

	if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		payload.PublishedAt = ts
	} else {
		w.log.WarnObj("unparseable publishedAt from data api", "youtube_poll", map[string]any{
			"video_id": item.Id.VideoId,
			"value":    item.Snippet.PublishedAt,
		})
		payload.PublishedAt = time.Now().UTC()
	}

	switch item.Snippet.LiveBroadcastContent {
	case "live":
		payload.IsLive = true
	case "upcoming":
		payload.State = string(domain.StateScheduled)
	}

	return domain.Sighting{ID: item.Id.VideoId, Source: w.source, Payload: payload}
}

// apiSearchLister adapts the generated client to searchLister.
type apiSearchLister struct {
	svc *youtube.Service
}

func (l *apiSearchLister) Recent(ctx context.Context, channelID string, max int64) ([]*youtube.SearchResult, error) {
	resp, err := l.svc.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		Order("date").
		Type("video").
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}
