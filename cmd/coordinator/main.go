package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sightcast-hq/sightcast-coordinator/internal/app"
	"github.com/sightcast-hq/sightcast-coordinator/internal/config"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coordinator start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("coordinator starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coord, err := app.NewCoordinator(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize coordinator", "error", err)
		return err
	}

	if err := coord.Run(ctx); err != nil {
		return fmt.Errorf("coordinator run: %w", err)
	}

	return nil
}
