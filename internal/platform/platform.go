package platform

// Package platform recognizes content URLs from the supported hosting
// platforms and extracts their native identifiers.

import (
	"regexp"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|shorts/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	tweetIDPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/[A-Za-z0-9_]+/status/(\d+)`)
)

// ExtractVideoID returns the 11-character video identifier embedded in a
// watch/short/live URL, if present.
func ExtractVideoID(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// ExtractTweetID returns the numeric status identifier from a post URL, if present.
func ExtractTweetID(url string) (string, bool) {
	m := tweetIDPattern.FindStringSubmatch(url)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// IsVideoURL reports whether the URL points at video-hosting content.
func IsVideoURL(url string) bool {
	_, ok := ExtractVideoID(url)
	return ok
}

// IsTweetURL reports whether the URL points at a social post.
func IsTweetURL(url string) bool {
	_, ok := ExtractTweetID(url)
	return ok
}

// WatchURL builds the canonical watch URL for a video identifier.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + strings.TrimSpace(videoID)
}
