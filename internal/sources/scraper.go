package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
	"github.com/sightcast-hq/sightcast-coordinator/internal/platform"
	"github.com/sightcast-hq/sightcast-coordinator/pkg/httpclient"
)

const (
	maxHTMLBodyBytes     = 1 << 20 // 1 MiB
	scrapeClientTimeout  = 15 * time.Second
	scrapeSnippetMaxSize = 1024
)

// ScrapeWatcher polls a public page and extracts video and social post links
// from its anchors. It is the lowest-trust discovery channel: no structured
// publish timestamps exist, so the observation time stands in.
type ScrapeWatcher struct {
	id     string
	source string
	cfg    ScraperWatcherConfig
	client httpclient.Client
	log    logger.Logger
	now    func() time.Time
}

// NewScrapeWatcher builds a page watcher. A nil client gets the default resty
// adapter.
func NewScrapeWatcher(cfg WatcherConfig, client httpclient.Client, log logger.Logger) (*ScrapeWatcher, error) {
	if cfg.Scraper == nil {
		return nil, fmt.Errorf("scraper config missing for source %q", cfg.ID)
	}
	if client == nil {
		client = httpclient.NewRestyClient(scrapeClientTimeout)
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &ScrapeWatcher{
		id:     cfg.ID,
		source: cfg.Source,
		cfg:    *cfg.Scraper,
		client: client,
		log:    log,
		now:    time.Now,
	}, nil
}

func (w *ScrapeWatcher) ID() string     { return w.id }
func (w *ScrapeWatcher) Source() string { return w.source }

// Poll fetches the page and returns a sighting per recognized content link.
func (w *ScrapeWatcher) Poll(ctx context.Context) ([]domain.Sighting, error) {
	resp, err := w.client.Get(ctx, w.cfg.URL, w.cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > scrapeSnippetMaxSize {
			snippet = snippet[:scrapeSnippetMaxSize]
		}
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return w.parse(body)
}

func (w *ScrapeWatcher) parse(body []byte) ([]domain.Sighting, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	observed := w.now().UTC()
	seen := map[string]struct{}{}
	var out []domain.Sighting

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		title := strings.TrimSpace(sel.Text())

		if videoID, ok := platform.ExtractVideoID(href); ok {
			if _, dup := seen[videoID]; dup {
				return
			}
			seen[videoID] = struct{}{}
			out = append(out, domain.Sighting{
				ID:     videoID,
				Source: w.source,
				Payload: domain.SightingPayload{
					Type:        string(domain.TypeVideo),
					URL:         platform.WatchURL(videoID),
					Title:       title,
					PublishedAt: observed,
				},
			})
			return
		}

		if tweetID, ok := platform.ExtractTweetID(href); ok {
			if _, dup := seen[tweetID]; dup {
				return
			}
			seen[tweetID] = struct{}{}
			out = append(out, domain.Sighting{
				ID:     tweetID,
				Source: w.source,
				Payload: domain.SightingPayload{
					Type:        string(domain.TypeTweet),
					URL:         href,
					Title:       title,
					PublishedAt: observed,
				},
			})
		}
	})

	return out, nil
}
