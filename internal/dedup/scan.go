package dedup

import (
	"context"
	"fmt"

	"github.com/sightcast-hq/sightcast-coordinator/internal/discord"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
)

// VideoScanResult aggregates one channel scan for video links.
type VideoScanResult struct {
	MessagesScanned int      `json:"messages_scanned"`
	VideoIDsAdded   int      `json:"video_ids_added"`
	Errors          []string `json:"errors,omitempty"`
}

// TweetScanResult aggregates one channel scan for social post links.
type TweetScanResult struct {
	MessagesScanned int      `json:"messages_scanned"`
	TweetIDsAdded   int      `json:"tweet_ids_added"`
	Errors          []string `json:"errors,omitempty"`
}

// ScanChannelForVideos walks a channel's recent history and records every
// video id found in message bodies or embeds.
func (d *Detector) ScanChannelForVideos(ctx context.Context, ch discord.Channel, limit int) (VideoScanResult, error) {
	res := VideoScanResult{}
	if ch == nil {
		return res, fmt.Errorf("channel is nil")
	}

	msgs, err := ch.Messages(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("scan channel %s: %w", ch.ID(), err)
	}
	res.MessagesScanned = len(msgs)

	for _, msg := range msgs {
		for _, candidate := range messageLinks(msg) {
			id, ok := platform.ExtractVideoID(candidate)
			if !ok {
				continue
			}
			d.mu.Lock()
			if _, exists := d.videoIDs[id]; !exists {
				d.videoIDs[id] = struct{}{}
				d.urls[normalizeURL(platform.WatchURL(id))] = struct{}{}
				res.VideoIDsAdded++
			}
			d.mu.Unlock()
		}
	}
	return res, nil
}

// ScanChannelForTweets walks a channel's recent history and records every
// post id found in message bodies or embeds.
func (d *Detector) ScanChannelForTweets(ctx context.Context, ch discord.Channel, limit int) (TweetScanResult, error) {
	res := TweetScanResult{}
	if ch == nil {
		return res, fmt.Errorf("channel is nil")
	}

	msgs, err := ch.Messages(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("scan channel %s: %w", ch.ID(), err)
	}
	res.MessagesScanned = len(msgs)

	for _, msg := range msgs {
		for _, candidate := range messageLinks(msg) {
			id, ok := platform.ExtractTweetID(candidate)
			if !ok {
				continue
			}
			d.mu.Lock()
			if _, exists := d.tweetIDs[id]; !exists {
				d.tweetIDs[id] = struct{}{}
				res.TweetIDsAdded++
			}
			d.mu.Unlock()
		}
	}
	return res, nil
}

func messageLinks(msg discord.Message) []string {
	links := []string{msg.Content}
	for _, e := range msg.Embeds {
		if e.URL != "" {
			links = append(links, e.URL)
		}
	}
	return links
}
