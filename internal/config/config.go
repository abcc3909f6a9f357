package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SourcesFile    string `mapstructure:"sources_file"`
	AnnouncersFile string `mapstructure:"announcers_file"`

	// LockTimeoutMs bounds how long a per-content processing lock entry may
	// linger before it is forcibly released. Zero disables the safety valve.
	LockTimeoutMs int64         `mapstructure:"lock_timeout_ms"`
	LockTimeout   time.Duration `mapstructure:"-"`

	// SourcePriority is the trust ordering of discovery channels, most
	// trusted first, as a comma-separated list.
	SourcePriorityCSV string   `mapstructure:"source_priority"`
	SourcePriority    []string `mapstructure:"-"`

	FreshnessWindowSeconds int64         `mapstructure:"freshness_window_seconds"`
	FreshnessWindow        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	WebhookListenAddr string `mapstructure:"webhook_listen_addr"`
	WebhookSecret     string `mapstructure:"webhook_secret"`

	DiscordToken   string `mapstructure:"discord_token"`
	DiscordAPIBase string `mapstructure:"discord_api_base"`

	// Channel identifiers used by the reconciliation bootstrap scan.
	VideoChannelID    string `mapstructure:"video_channel_id"`
	PostsChannelID    string `mapstructure:"posts_channel_id"`
	RepliesChannelID  string `mapstructure:"replies_channel_id"`
	QuotesChannelID   string `mapstructure:"quotes_channel_id"`
	RetweetsChannelID string `mapstructure:"retweets_channel_id"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "sightcast-coordinator")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("announcers_file", "./configs/announcers.yaml")
	v.SetDefault("lock_timeout_ms", 30000)
	v.SetDefault("source_priority", "webhook,api,scraper")
	v.SetDefault("freshness_window_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/content.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("webhook_listen_addr", ":8085")
	v.SetDefault("discord_api_base", "https://discord.com/api/v10")

	// Keys with no meaningful default still need to be registered, or
	// AutomaticEnv never looks them up during Unmarshal.
	for _, key := range []string{
		"webhook_secret",
		"discord_token",
		"video_channel_id",
		"posts_channel_id",
		"replies_channel_id",
		"quotes_channel_id",
		"retweets_channel_id",
	} {
		v.SetDefault(key, "")
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.LockTimeoutMs < 0 {
		return nil, fmt.Errorf("invalid lock_timeout_ms (must be zero or positive milliseconds)")
	}
	cfg.LockTimeout = time.Duration(cfg.LockTimeoutMs) * time.Millisecond

	cfg.SourcePriority = splitCSV(cfg.SourcePriorityCSV)
	if len(cfg.SourcePriority) == 0 {
		return nil, fmt.Errorf("source_priority must list at least one source tag")
	}

	if cfg.FreshnessWindowSeconds <= 0 {
		return nil, fmt.Errorf("invalid freshness_window_seconds (must be positive seconds)")
	}
	cfg.FreshnessWindow = time.Duration(cfg.FreshnessWindowSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// ChannelIDs returns the reconciliation scan channels keyed by category.
// Social categories with no configured channel are omitted.
func (c *Config) ChannelIDs() (video string, social map[string]string) {
	social = make(map[string]string, 4)
	for category, id := range map[string]string{
		"posts":    c.PostsChannelID,
		"replies":  c.RepliesChannelID,
		"quotes":   c.QuotesChannelID,
		"retweets": c.RetweetsChannelID,
	} {
		if strings.TrimSpace(id) != "" {
			social[category] = id
		}
	}
	return c.VideoChannelID, social
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
