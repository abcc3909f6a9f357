package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Supported discovery channel types.
	TypeWebhook    = "webhook"
	TypeYouTubeAPI = "youtube_api"
	TypeScraper    = "scraper"

	defaultPollIntervalSeconds = 300
	defaultRequestDelayMs      = 500
)

// configFile represents the structure of the sources configuration file.
type configFile struct {
	Sources []WatcherConfig `json:"sources" yaml:"sources"`
}

// WatcherConfig is a single discovery channel entry declared in config files.
type WatcherConfig struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
	// Source is the trust label reported to the engine. Defaults to the
	// conventional label for the channel type (webhook, api, scraper).
	Source              string                `json:"source" yaml:"source"`
	PollIntervalSeconds int                   `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	YouTube             *YouTubeWatcherConfig `json:"youtube" yaml:"youtube"`
	Scraper             *ScraperWatcherConfig `json:"scraper" yaml:"scraper"`
}

// YouTubeWatcherConfig holds Data API poller settings.
type YouTubeWatcherConfig struct {
	APIKey     string `json:"api_key" yaml:"api_key"`
	ChannelID  string `json:"channel_id" yaml:"channel_id"`
	MaxResults int64  `json:"max_results" yaml:"max_results"`
}

// ScraperWatcherConfig holds page-scrape poller settings.
type ScraperWatcherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
}

// ConfigRegistry materializes discovery channel definitions from config files.
type ConfigRegistry struct {
	sources []WatcherConfig
	idx     map[string]WatcherConfig
}

// LoadRegistry loads the sources registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	fileReg, err := parseSourceRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	reg := &ConfigRegistry{
		sources: make([]WatcherConfig, len(fileReg.Sources)),
		idx:     make(map[string]WatcherConfig, len(fileReg.Sources)),
	}

	for i := range fileReg.Sources {
		cfg := sanitizeWatcherConfig(fileReg.Sources[i])
		if err := validateWatcherConfig(cfg); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", cfg.ID)
		}
		reg.sources[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parseSourceRegistry attempts to decode the sources file content.
func parseSourceRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

// sanitizeWatcherConfig trims and normalizes the watcher config fields.
func sanitizeWatcherConfig(cfg WatcherConfig) WatcherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.Source == "" {
		cfg.Source = defaultSourceLabel(cfg.Type)
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if cfg.YouTube != nil {
		c := *cfg.YouTube
		c.APIKey = strings.TrimSpace(c.APIKey)
		c.ChannelID = strings.TrimSpace(c.ChannelID)
		if c.MaxResults <= 0 || c.MaxResults > 50 {
			c.MaxResults = 25
		}
		cfg.YouTube = &c
	}
	if cfg.Scraper != nil {
		c := *cfg.Scraper
		c.URL = strings.TrimSpace(c.URL)
		if c.RequestDelayMs <= 0 {
			c.RequestDelayMs = defaultRequestDelayMs
		}
		cfg.Scraper = &c
	}

	return cfg
}

func defaultSourceLabel(watcherType string) string {
	switch watcherType {
	case TypeYouTubeAPI:
		return "api"
	case TypeScraper:
		return "scraper"
	default:
		return watcherType
	}
}

// validateWatcherConfig checks that required fields are present.
func validateWatcherConfig(cfg WatcherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for source %q", cfg.ID)
	case TypeWebhook:
		// Webhook sources only contribute a trust label; the listener itself
		// is configured at the runtime level.
	case TypeYouTubeAPI:
		if cfg.YouTube == nil {
			return fmt.Errorf("youtube config required for source %q", cfg.ID)
		}
		if cfg.YouTube.APIKey == "" {
			return fmt.Errorf("youtube.api_key is required for source %q", cfg.ID)
		}
		if cfg.YouTube.ChannelID == "" {
			return fmt.Errorf("youtube.channel_id is required for source %q", cfg.ID)
		}
	case TypeScraper:
		if cfg.Scraper == nil {
			return fmt.Errorf("scraper config required for source %q", cfg.ID)
		}
		if cfg.Scraper.URL == "" {
			return fmt.Errorf("scraper.url is required for source %q", cfg.ID)
		}
	default:
		return fmt.Errorf("unknown type %q for source %q", cfg.Type, cfg.ID)
	}
	return nil
}

// ByID returns the source config by id.
func (r *ConfigRegistry) ByID(id string) (WatcherConfig, bool) {
	if r == nil {
		return WatcherConfig{}, false
	}
	cfg, ok := r.idx[strings.TrimSpace(id)]
	return cfg, ok
}

// All returns all configured sources.
func (r *ConfigRegistry) All() []WatcherConfig {
	if r == nil {
		return nil
	}
	out := make([]WatcherConfig, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns sources that are enabled.
func (r *ConfigRegistry) Enabled() []WatcherConfig {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	out := make([]WatcherConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg WatcherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// PollInterval returns the per-watcher poll cadence.
func (cfg WatcherConfig) PollInterval() time.Duration {
	if cfg.PollIntervalSeconds <= 0 {
		return defaultPollIntervalSeconds * time.Second
	}
	return time.Duration(cfg.PollIntervalSeconds) * time.Second
}

// RequestDelay returns the per-request throttle duration for scrape watchers.
func (c *ScraperWatcherConfig) RequestDelay() time.Duration {
	if c == nil || c.RequestDelayMs <= 0 {
		return defaultRequestDelayMs * time.Millisecond
	}
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}
