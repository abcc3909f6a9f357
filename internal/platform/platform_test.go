package platform

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abcDEF12345":        "abcDEF12345",
		"https://www.youtube.com/live/abcDEF12345?feature=s": "abcDEF12345",
	}
	for url, want := range cases {
		got, ok := ExtractVideoID(url)
		if !ok || got != want {
			t.Errorf("ExtractVideoID(%q) = %q ok=%v, want %q", url, got, ok, want)
		}
	}

	if _, ok := ExtractVideoID("https://example.com/watch?v=nope"); ok {
		t.Errorf("expected no video id for non-platform url")
	}
}

func TestExtractTweetID(t *testing.T) {
	for _, url := range []string{
		"https://twitter.com/someone/status/1234567890",
		"https://x.com/someone/status/1234567890",
	} {
		got, ok := ExtractTweetID(url)
		if !ok || got != "1234567890" {
			t.Errorf("ExtractTweetID(%q) = %q ok=%v", url, got, ok)
		}
	}

	if _, ok := ExtractTweetID("https://x.com/someone"); ok {
		t.Errorf("expected no tweet id for profile url")
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL(" abc "); got != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("WatchURL = %q", got)
	}
}
