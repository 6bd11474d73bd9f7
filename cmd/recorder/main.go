package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fly-voice/config"
	"fly-voice/internal/application"
	"fly-voice/internal/bootstrap"
	"fly-voice/internal/infra/audio"
	"fly-voice/internal/infra/keyboard"
	"fly-voice/internal/infra/pushover"
	"fly-voice/internal/logging"
	"fly-voice/internal/persona"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	input := flag.String("input", "", "replay a WAV file instead of the microphone")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	controls, err := keyboard.Open(os.Stdin)
	if err != nil {
		slog.Error("opening keyboard", "error", err)
		os.Exit(1)
	}

	code := run(cfg, controls, *input)
	controls.Close()
	os.Exit(code)
}

func run(cfg *config.Config, controls *keyboard.Controls, input string) int {
	stdout := controls.Writer(os.Stdout)
	logger := logging.New(cfg.Log, controls.Writer(os.Stderr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	pipeline, err := bootstrap.NewPipeline(cfg, nil, logger)
	if err != nil {
		logger.Error("building pipeline", "error", err)
		return 1
	}

	// The console waits for its engines before taking input.
	pipeline.Engines.LoadAsync(ctx)
	pipeline.Engines.Wait()
	if health := pipeline.Engines.Health(); health != "ok" {
		logger.Error("engines not ready", "status", health, "engines", pipeline.Engines.Statuses())
		return 1
	}

	source := createFrameSource(cfg.Audio, input, logger)

	presenter := application.Presenters{application.NewWriterPresenter(stdout, "Black Soldier Fly")}
	if cfg.Pushover.Enabled {
		presenter = append(presenter, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey))
	}

	recorder := application.NewRecorder(
		source,
		controls,
		pipeline.Transcription,
		pipeline.Chat,
		presenter,
		nil,
		cfg.Audio.Poll(),
		logger,
	)

	greet(stdout, controls.Raw(), pipeline.Chat != nil)

	if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("recorder error", "error", err)
		return 1
	}
	return 0
}

func createFrameSource(cfg config.AudioConfig, input string, logger *slog.Logger) application.FrameSource {
	if input != "" {
		return audio.NewFileSource(input, cfg.FramesPerBuffer, true, logger)
	}
	return audio.NewMicrophoneSource(cfg.SampleRate, cfg.FramesPerBuffer, logger)
}

func greet(w io.Writer, raw, chat bool) {
	if chat {
		fmt.Fprintf(w, "Black Soldier Fly: %s\n", persona.Greeting)
	}
	if raw {
		fmt.Fprintln(w, "Press space to start or stop recording, q to quit.")
	} else {
		fmt.Fprintln(w, "Press Enter to start or stop recording, type q and Enter to quit.")
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.FromEnv()
	}
	return cfg, err
}
