package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fly-voice/internal/application"
	"fly-voice/internal/domain"
	"fly-voice/internal/wavfile"
)

// FileSource replays a mono 16-bit WAV file as captured frames, paced at the
// file's sample rate. Once the file is exhausted it stays silent.
type FileSource struct {
	path            string
	framesPerBuffer int
	realtime        bool
	logger          *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFileSource(path string, framesPerBuffer int, realtime bool, logger *slog.Logger) *FileSource {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}
	return &FileSource{
		path:            path,
		framesPerBuffer: framesPerBuffer,
		realtime:        realtime,
		logger:          logger,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(ctx context.Context, sink application.FrameSink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		return nil
	}

	clip, err := wavfile.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("opening audio file: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	f.logger.Info("replaying audio file", "path", f.path, "seconds", clip.Duration())
	go f.replay(ctx, clip, sink)
	return nil
}

func (f *FileSource) replay(ctx context.Context, clip wavfile.Clip, sink application.FrameSink) {
	defer close(f.done)

	samples := wavfile.FromPCM16(clip.Samples)
	interval := time.Duration(float64(f.framesPerBuffer) / float64(clip.SampleRate) * float64(time.Second))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for start := 0; start < len(samples); start += f.framesPerBuffer {
		if f.realtime {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		end := min(start+f.framesPerBuffer, len(samples))
		sink(domain.Frame{Samples: samples[start:end], Captured: time.Now()})
	}
}

func (f *FileSource) Stop() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
