package whispercpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"fly-voice/internal/domain"
)

// Transcriber shells out to a whisper.cpp binary and reads the .txt file it
// writes next to the input.
type Transcriber struct {
	binary   string
	model    string
	language string
	logger   *slog.Logger
}

func NewTranscriber(binary, model, language string, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		binary:   binary,
		model:    model,
		language: language,
		logger:   logger,
	}
}

func (t *Transcriber) Name() string {
	return "whisper-cpp"
}

func (t *Transcriber) Model() string {
	return t.model
}

// Load checks that the binary is on PATH and the model file exists.
func (t *Transcriber) Load(_ context.Context) error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("locating whisper binary: %w", err)
	}
	info, err := os.Stat(t.model)
	if err != nil {
		return fmt.Errorf("checking whisper model: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("whisper model %s is a directory", t.model)
	}
	return nil
}

func (t *Transcriber) TranscribeFile(ctx context.Context, path string) (domain.Transcript, error) {
	args := []string{"-m", t.model, "-f", path, "-otxt"}
	if t.language != "" {
		args = append(args, "-l", t.language)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return domain.Transcript{}, ctx.Err()
	}

	out := path + ".txt"
	defer func() {
		if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("removing whisper output", "path", out, "error", err)
		}
	}()

	data, err := os.ReadFile(out)
	if err != nil {
		if runErr != nil {
			return domain.Transcript{}, fmt.Errorf("%w: whisper exited: %w: %s",
				domain.ErrTranscriptionFailed, runErr, strings.TrimSpace(stderr.String()))
		}
		return domain.Transcript{}, fmt.Errorf("%w: no transcript written: %w", domain.ErrTranscriptionFailed, err)
	}
	if runErr != nil {
		t.logger.Warn("whisper exited with error but wrote a transcript", "error", runErr)
	}

	return domain.Transcript{
		Text:     strings.TrimSpace(string(data)),
		Language: t.reportedLanguage(),
	}, nil
}

// reportedLanguage is the configured language; whisper's text output does not
// carry the language it detected.
func (t *Transcriber) reportedLanguage() string {
	if t.language == "auto" {
		return ""
	}
	return t.language
}
