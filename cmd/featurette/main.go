package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/featurette/internal/app"
	"github.com/samvad-hq/featurette/internal/config"
	"github.com/samvad-hq/featurette/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "featurette start failed: %v\n", err)
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

	logger.InfoObj("featurette starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := app.NewAgent(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize agent", "error", err.Error())
		return err
	}

	if err := agent.Run(ctx); err != nil {
		return fmt.Errorf("agent run: %w", err)
	}

	return nil
}
