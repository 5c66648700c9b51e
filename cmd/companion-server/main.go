package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/api"
	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/config"
	"github.com/prasanna12art/skill-boost-automator/internal/copilot"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := logLevel.UnmarshalText([]byte(lvl)); err != nil {
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Persistence
	kv, closeKV, err := openKV(cfg)
	if err != nil {
		logger.Error("failed to open persistence", "backend", cfg.PersistBackend, "error", err)
		os.Exit(1)
	}
	defer closeKV()

	seed, err := labs.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Error("failed to load seed catalog", "path", cfg.SeedFile, "error", err)
		os.Exit(1)
	}

	labStore, err := labs.NewStore(kv, seed, logger)
	if err != nil {
		logger.Error("failed to load labs", "error", err)
		os.Exit(1)
	}

	// Copilot
	engine := copilot.NewEngine(labStore, copilot.NewClockScheduler(clock.New()), copilot.Options{
		StartDelay:   cfg.CopilotStartDelay,
		StepInterval: cfg.CopilotStepInterval,
	}, logger)
	engine.Recover()

	// Advisory service
	advisor, err := advisory.New(cfg)
	if err != nil {
		logger.Error("failed to create advisor", "provider", cfg.AdvisorProvider, "error", err)
		os.Exit(1)
	}
	hctx, hcancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := advisor.HealthCheck(hctx); err != nil {
		logger.Warn("advisor not available at startup, step generation and insights will fail until it is",
			"provider", advisor.Name(), "error", err)
	}
	hcancel()

	ctrl := companion.New(labStore, engine, advisor, kv, logger)

	// Router
	router := api.NewRouter(ctrl, labStore, kv, advisor, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// step generation waits on the advisor
		WriteTimeout: cfg.AdvisorTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("companion server starting",
			"addr", addr,
			"backend", cfg.PersistBackend,
			"advisor", advisor.Name(),
			"labs", labStore.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	ctrl.Close()

	logger.Info("server stopped")
}

// openKV opens the configured persistence backend.
func openKV(cfg *config.Config) (store.KV, func(), error) {
	switch cfg.PersistBackend {
	case "redis":
		r, err := store.OpenRedis(cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	default:
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewKVStore(db), func() { db.Close() }, nil
	}
}
