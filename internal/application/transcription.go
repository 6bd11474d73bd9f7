package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fly-voice/internal/domain"
	"fly-voice/internal/scratch"
	"fly-voice/internal/wavfile"
)

// Transcription writes audio to a scratch file, hands the path to the
// speech-to-text engine and removes the file on every exit path.
type Transcription struct {
	stt        SpeechToText
	gate       *Engine
	scratch    *scratch.Dir
	sampleRate int
	observer   Observer
	logger     *slog.Logger
}

// NewTranscription wires the service. gate may be nil when the engine needs no
// readiness check.
func NewTranscription(
	stt SpeechToText,
	gate *Engine,
	dir *scratch.Dir,
	sampleRate int,
	observer Observer,
	logger *slog.Logger,
) *Transcription {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Transcription{
		stt:        stt,
		gate:       gate,
		scratch:    dir,
		sampleRate: sampleRate,
		observer:   observer,
		logger:     logger,
	}
}

func (t *Transcription) Engine() string {
	return t.stt.Name()
}

// TranscribeFrames concatenates frames into one mono WAV and transcribes it.
// Zero samples yields ErrNoAudio without touching the engine or the disk.
func (t *Transcription) TranscribeFrames(ctx context.Context, frames []domain.Frame) (transcript domain.Transcript, err error) {
	samples := domain.Concat(frames)
	if len(samples) == 0 {
		return domain.Transcript{}, domain.ErrNoAudio
	}

	if err := t.check(); err != nil {
		return domain.Transcript{}, err
	}

	f, err := t.scratch.Create(".wav")
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %w", domain.ErrScratchIO, err)
	}
	defer t.release(f, &err)

	if err := wavfile.Encode(f.File, samples, t.sampleRate); err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: encoding recording: %w", domain.ErrScratchIO, err)
	}
	if err := f.Close(); err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: closing recording: %w", domain.ErrScratchIO, err)
	}

	t.logger.Debug("recording written", "path", f.Path(), "samples", len(samples))

	return t.transcribe(ctx, f.Path())
}

// TranscribeUpload stores an uploaded container and transcribes it. The
// container is passed through unchanged; filename only picks the extension.
func (t *Transcription) TranscribeUpload(ctx context.Context, r io.Reader, filename string) (transcript domain.Transcript, err error) {
	if err := t.check(); err != nil {
		return domain.Transcript{}, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".wav"
	}

	f, err := t.scratch.Create(ext)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %w", domain.ErrScratchIO, err)
	}
	defer t.release(f, &err)

	n, err := f.Fill(r)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %w", domain.ErrScratchIO, err)
	}
	if n == 0 {
		return domain.Transcript{}, fmt.Errorf("%w: empty audio upload", domain.ErrInvalidInput)
	}

	t.logger.Debug("upload written", "path", f.Path(), "bytes", n)

	return t.transcribe(ctx, f.Path())
}

func (t *Transcription) check() error {
	if t.gate == nil {
		return nil
	}
	return t.gate.Check()
}

func (t *Transcription) transcribe(ctx context.Context, path string) (domain.Transcript, error) {
	start := time.Now()
	result, err := t.stt.TranscribeFile(ctx, path)
	t.observer.TranscriptionDone(time.Since(start), err)

	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) &&
			!errors.Is(err, domain.ErrTranscriptionFailed) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domain.ErrTranscriptionFailed, err)
		}
		return domain.Transcript{}, fmt.Errorf("transcribing with %s: %w", t.stt.Name(), err)
	}

	result.Text = strings.TrimSpace(result.Text)
	return result, nil
}

// release deletes the scratch file and turns a cleanup failure into the
// call's error when nothing else went wrong.
func (t *Transcription) release(f *scratch.File, err *error) {
	if rerr := f.Release(); rerr != nil && *err == nil {
		*err = fmt.Errorf("%w: %w", domain.ErrScratchIO, rerr)
	}
}
