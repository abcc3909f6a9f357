package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/announcer"
	"github.com/sightcast-hq/sightcast-coordinator/internal/config"
	"github.com/sightcast-hq/sightcast-coordinator/internal/coordinator"
	"github.com/sightcast-hq/sightcast-coordinator/internal/dedup"
	"github.com/sightcast-hq/sightcast-coordinator/internal/discord"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
	"github.com/sightcast-hq/sightcast-coordinator/internal/sources"
	"github.com/sightcast-hq/sightcast-coordinator/internal/storage"
)

const shutdownGrace = 10 * time.Second

// Coordinator is the service runtime. It wires the discovery channels, the
// coordination engine, and the announcement fanout, then runs them until the
// context is cancelled.
type Coordinator struct {
	cfg     *config.Config
	engine  *coordinator.Engine
	runner  *sources.Runner
	webhook *sources.WebhookServer
	discord *discord.Client
	store   storage.ContentStore
	fanout  *announcer.Fanout
	log     logger.Logger
}

// NewCoordinator builds the runtime from config files.
func NewCoordinator(ctx context.Context, cfg *config.Config, log logger.Logger) (*Coordinator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	enabledSources := sourceReg.Enabled()
	sourceIDs := make([]string, 0, len(enabledSources))
	for _, s := range enabledSources {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	announcerReg, err := announcer.LoadRegistry(cfg.AnnouncersFile)
	if err != nil {
		return nil, fmt.Errorf("load announcers registry: %w", err)
	}
	enabledSinks := announcerReg.Enabled()
	if len(enabledSinks) == 0 {
		return nil, fmt.Errorf("no announcers configured")
	}
	sinks, err := announcer.BuildAll(ctx, announcer.DefaultRegistry(), enabledSinks, log)
	if err != nil {
		return nil, fmt.Errorf("build announcers: %w", err)
	}
	fanout := announcer.NewFanout(sinks)
	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("announcers registry loaded", "announcers_meta", map[string]any{
		"count":      len(sinkSummaries),
		"announcers": sinkSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		FreshnessWindow: cfg.FreshnessWindow,
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	detector := dedup.NewDetector()
	discordClient := discord.NewClient(cfg.DiscordAPIBase, cfg.DiscordToken, 10*time.Second)

	video, social := cfg.ChannelIDs()
	engine, err := coordinator.New(store, detector, fanout, discordClient, coordinator.Options{
		LockTimeout: cfg.LockTimeout,
		Priorities:  cfg.SourcePriority,
		Channels:    coordinator.ChannelSet{Video: video, Social: social},
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	watchers, err := sources.BuildAll(ctx, sources.DefaultRegistry(), enabledSources, log)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	runner, err := sources.NewRunner(watchers, enabledSources, engine, log)
	if err != nil {
		return nil, fmt.Errorf("init runner: %w", err)
	}

	webhook, err := sources.NewWebhookServer(cfg.WebhookListenAddr, cfg.WebhookSecret, engine, engine, log)
	if err != nil {
		return nil, fmt.Errorf("init webhook listener: %w", err)
	}

	return &Coordinator{
		cfg:     cfg,
		engine:  engine,
		runner:  runner,
		webhook: webhook,
		discord: discordClient,
		store:   store,
		fanout:  fanout,
		log:     log,
	}, nil
}

// Run starts the webhook listener and the poll loops until the context is
// cancelled, then shuts both down.
func (c *Coordinator) Run(ctx context.Context) error {
	if c == nil || c.engine == nil {
		return fmt.Errorf("coordinator is not initialized")
	}
	defer c.closeStore()
	defer c.engine.Destroy()

	c.bootstrapReconciliation(ctx)

	c.log.InfoObj("coordinator starting", "coordinator_state", map[string]any{
		"listen_addr":     c.cfg.WebhookListenAddr,
		"announcer_count": c.fanout.Size(),
		"lock_timeout_ms": c.cfg.LockTimeout.Milliseconds(),
		"source_priority": c.cfg.SourcePriority,
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.webhook.ListenAndServe()
	}()
	go func() {
		errCh <- c.runner.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			c.shutdownWebhook()
			return fmt.Errorf("coordinator component failed: %w", err)
		}
	}

	c.shutdownWebhook()
	c.log.InfoObj("coordinator stopped", "reason", ctx.Err())
	return nil
}

// bootstrapReconciliation connects the chat client and seeds the duplicate
// detector from channel history. Failures degrade to an unseeded detector;
// the engine stays fully functional.
func (c *Coordinator) bootstrapReconciliation(ctx context.Context) {
	if c.cfg.DiscordToken == "" {
		c.log.WarnObj("discord token not configured; reconciliation scan disabled", "discord_state", nil)
		return
	}

	if err := c.discord.Connect(ctx); err != nil {
		c.log.WarnObj("discord connect failed; reconciliation scan disabled", "discord_error", err.Error())
		return
	}

	report := c.engine.InitializeChannelScanning(ctx)
	c.log.InfoObj("reconciliation bootstrap finished", "scan_report", report)
}

func (c *Coordinator) shutdownWebhook() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := c.webhook.Shutdown(ctx); err != nil {
		c.log.ErrorObj("webhook shutdown failed", "error", err)
	}
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (c *Coordinator) closeStore() {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err)
	}
}
