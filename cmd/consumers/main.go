package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"skylark/internal/config"
	"skylark/internal/consumers"
	"skylark/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	service, err := consumers.NewService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize consumers", "error", err)
	}

	if err := service.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down consumers")
	service.Stop()
}
