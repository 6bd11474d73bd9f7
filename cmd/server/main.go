package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fly-voice/config"
	"fly-voice/internal/bootstrap"
	"fly-voice/internal/infra/httpapi"
	"fly-voice/internal/infra/metrics"
	"fly-voice/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.New(cfg.Log, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	pipeline, err := bootstrap.NewPipeline(cfg, m, logger)
	if err != nil {
		logger.Error("building pipeline", "error", err)
		os.Exit(1)
	}

	server := httpapi.NewServer(
		cfg.Server,
		pipeline.Transcription,
		pipeline.Chat,
		pipeline.Engines,
		httpapi.Models{
			Transcriber: pipeline.Transcriber.STT.Name(),
			Model:       pipeline.Transcriber.Model,
			Reply:       pipeline.ReplyEngine,
			Available:   httpapi.WhisperSizes,
		},
		m,
		logger,
	)

	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	// Requests are answered with 503 until the engines finish loading.
	pipeline.Engines.LoadAsync(ctx)

	logger.Info("fly voice server running",
		"addr", server.Addr(),
		"transcriber", pipeline.Transcriber.STT.Name(),
		"reply", pipeline.ReplyEngine,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	cancel()

	if err := server.Stop(); err != nil {
		logger.Error("stopping server", "error", err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults plus environment credentials when the file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.FromEnv()
	}
	return cfg, err
}
