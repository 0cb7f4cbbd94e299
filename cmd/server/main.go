package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orpheus-av/orpheus/internal/config"
	"github.com/orpheus-av/orpheus/internal/engine"
	"github.com/orpheus-av/orpheus/internal/logger"
	"github.com/orpheus-av/orpheus/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	logger.Log.Info().
		Str("log_level", cfg.Logging.Level).
		Msg("Orpheus playback service starting")

	// The simulated engine stands in for a real decoder pipeline; swap in a
	// hardware-backed implementation here to drive actual output.
	eng := engine.NewSim(10 * time.Minute)
	ads := engine.NewSimAdsLoader(eng)

	srv := server.New(cfg, eng, ads)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		logger.Log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
}
