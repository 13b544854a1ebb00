package main

import (
	"context"
	"os"

	"github.com/clindevdep/RSS/internal/app"
	"github.com/clindevdep/RSS/internal/config"
	"github.com/clindevdep/RSS/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
