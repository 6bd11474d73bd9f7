package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fly-voice/internal/domain"
	"fly-voice/internal/queue"
)

// Recorder is the local console pipeline: control events toggle recording,
// captured frames are queued while recording, and each finished recording is
// transcribed and optionally answered.
//
// The capture callback checks the session state and then pushes, so a frame
// delivered right as recording stops can miss the drain and end up at the
// head of the next recording, or be dropped. That window is one frame long
// and is not guarded.
type Recorder struct {
	source        FrameSource
	controls      ControlSource
	transcription *Transcription
	chat          *Chat
	presenter     Presenter
	observer      Observer
	poll          time.Duration
	logger        *slog.Logger

	session *Session
	frames  *queue.Queue[take]
	history []domain.Message
}

// take is a queued frame tagged with the recording it was captured in.
type take struct {
	generation uint64
	frame      domain.Frame
}

// NewRecorder wires the pipeline. chat may be nil to only transcribe.
func NewRecorder(
	source FrameSource,
	controls ControlSource,
	transcription *Transcription,
	chat *Chat,
	presenter Presenter,
	observer Observer,
	poll time.Duration,
	logger *slog.Logger,
) *Recorder {
	if observer == nil {
		observer = NoopObserver{}
	}
	if presenter == nil {
		presenter = &NoopPresenter{}
	}
	return &Recorder{
		source:        source,
		controls:      controls,
		transcription: transcription,
		chat:          chat,
		presenter:     presenter,
		observer:      observer,
		poll:          poll,
		logger:        logger,
		session:       NewSession(),
		frames:        queue.New[take](),
	}
}

func (r *Recorder) Session() *Session {
	return r.session
}

// Run blocks until a quit event, an exhausted control source or ctx cancellation.
func (r *Recorder) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.logger.Info("starting audio source", "source", r.source.Name())
	if err := r.source.Start(ctx, r.onFrame); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer r.source.Stop()

	go r.readControls(ctx)
	go func() {
		select {
		case <-ctx.Done():
			r.session.Shutdown()
		case <-r.session.Done():
		}
		r.frames.Close()
	}()

	r.logger.Info("recorder ready, waiting for start")

	var (
		recording bool
		seen      uint64
		frames    []domain.Frame
	)

	// finish processes the open buffer and starts a new one for generation.
	finish := func(generation uint64) {
		r.logger.Info("recording stopped", "frames", len(frames))
		if err := r.processRecording(ctx, frames); err != nil {
			r.logger.Error("processing recording", "error", err)
		}
		frames = nil
		seen = generation
	}
	collect := func(t take) {
		if t.generation != seen {
			if len(frames) > 0 {
				finish(t.generation)
			}
			seen = t.generation
		}
		frames = append(frames, t.frame)
	}

	for {
		switch r.session.State() {
		case domain.StateExiting:
			if len(frames) > 0 {
				r.logger.Info("discarding open recording", "frames", len(frames))
			}
			return ctx.Err()

		case domain.StateRecording:
			if !recording {
				recording = true
				seen = r.session.Generation()
				r.logger.Info("recording started")
			}
			if t, ok := r.frames.PopWait(r.poll); ok {
				collect(t)
			} else if gen := r.session.Generation(); gen != seen {
				// stopped and restarted within one poll
				finish(gen)
			}

		case domain.StateIdle:
			if !recording && r.session.Generation() == seen {
				r.waitIdle(ctx)
				continue
			}
			recording = false
			r.drain(collect)
			if r.session.State() == domain.StateRecording && seen == r.session.Generation() {
				// restarted during the drain, frames belong to the open take
				recording = true
				continue
			}
			finish(r.session.Generation())
		}
	}
}

func (r *Recorder) onFrame(f domain.Frame) {
	if r.session.State() != domain.StateRecording {
		r.observer.FrameDropped()
		return
	}
	if r.frames.Push(take{generation: r.session.Generation(), frame: f}) {
		r.observer.FrameCaptured()
		r.observer.QueueDepth(r.frames.Len())
	}
}

func (r *Recorder) readControls(ctx context.Context) {
	defer r.session.Shutdown()

	for {
		event, err := r.controls.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				r.logger.Error("reading control input", "error", err)
			}
			return
		}

		state, err := r.session.Apply(event)
		if err != nil {
			r.logger.Debug("ignoring control event", "event", event, "error", err)
			continue
		}
		if state == domain.StateExiting {
			return
		}
	}
}

// drain empties the queue, stopping once no frame arrives within one poll interval.
func (r *Recorder) drain(collect func(take)) {
	for {
		t, ok := r.frames.PopWait(r.poll)
		if !ok {
			r.observer.QueueDepth(r.frames.Len())
			return
		}
		collect(t)
	}
}

func (r *Recorder) waitIdle(ctx context.Context) {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-r.session.Done():
	case <-timer.C:
	}
}

func (r *Recorder) processRecording(ctx context.Context, frames []domain.Frame) error {
	transcript, err := r.transcription.TranscribeFrames(ctx, frames)
	if errors.Is(err, domain.ErrNoAudio) {
		r.logger.Info("nothing recorded, skipping transcription")
		return nil
	}
	if err != nil {
		return err
	}

	r.logger.Info("transcribed", "text", transcript.Text, "language", transcript.Language)

	var reply string
	if r.chat != nil && transcript.Text != "" {
		history := append(r.history, domain.UserMessage(transcript.Text))
		reply, err = r.chat.Reply(ctx, history)
		if err != nil {
			if presentErr := r.presenter.Present(ctx, transcript, ""); presentErr != nil {
				r.logger.Error("presenting transcript", "error", presentErr)
			}
			return err
		}
		r.history = trimHistory(append(history, domain.Message{Role: domain.RoleAssistant, Content: reply}))
	}

	if err := r.presenter.Present(ctx, transcript, reply); err != nil {
		return fmt.Errorf("presenting: %w", err)
	}
	return nil
}

func trimHistory(h []domain.Message) []domain.Message {
	if len(h) <= maxHistory {
		return h
	}
	return append([]domain.Message(nil), h[len(h)-maxHistory:]...)
}
