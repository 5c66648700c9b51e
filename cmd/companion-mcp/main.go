package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prasanna12art/skill-boost-automator/internal/client"
	"github.com/prasanna12art/skill-boost-automator/internal/config"
	"github.com/prasanna12art/skill-boost-automator/internal/mcp"
)

func main() {
	// stdout carries the protocol, so logs go to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	server := mcp.NewServer(client.New(cfg.CompanionServerURL, cfg.APIKey), logger)
	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %s\n", err)
		os.Exit(1)
	}
}
