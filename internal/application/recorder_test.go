package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"fly-voice/internal/application"
	"fly-voice/internal/domain"
	"fly-voice/internal/persona"
	"fly-voice/internal/scratch"
	"fly-voice/internal/wavfile"
)

type mockFrameSource struct {
	mu      sync.Mutex
	sink    application.FrameSink
	started chan struct{}
}

func newMockFrameSource() *mockFrameSource {
	return &mockFrameSource{started: make(chan struct{})}
}

func (m *mockFrameSource) Start(_ context.Context, sink application.FrameSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
	close(m.started)
	return nil
}
func (m *mockFrameSource) Stop() error  { return nil }
func (m *mockFrameSource) Name() string { return "mock" }

func (m *mockFrameSource) emit(samples ...float32) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	sink(domain.Frame{Samples: samples, Captured: time.Now()})
}

type mockControls struct {
	events chan domain.ControlEvent
}

func newMockControls() *mockControls {
	return &mockControls{events: make(chan domain.ControlEvent, 8)}
}

func (m *mockControls) Next(ctx context.Context) (domain.ControlEvent, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ev, ok := <-m.events:
		if !ok {
			return "", io.EOF
		}
		return ev, nil
	}
}
func (m *mockControls) Close() error { return nil }

// wavSTT decodes the recording and reports how many samples it held.
type wavSTT struct {
	mu      sync.Mutex
	calls   int
	samples []int
	text    string
}

func (s *wavSTT) Name() string                 { return "wav-mock" }
func (s *wavSTT) Load(_ context.Context) error { return nil }

func (s *wavSTT) TranscribeFile(_ context.Context, path string) (domain.Transcript, error) {
	clip, err := wavfile.ReadFile(path)
	if err != nil {
		return domain.Transcript{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.samples = append(s.samples, len(clip.Samples))
	return domain.Transcript{Text: "  " + s.text + "  ", Language: "en"}, nil
}

func (s *wavSTT) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingPresenter struct {
	mu      sync.Mutex
	results []presented
	done    chan struct{}
}

type presented struct {
	transcript domain.Transcript
	reply      string
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{done: make(chan struct{}, 8)}
}

func (p *recordingPresenter) Present(_ context.Context, t domain.Transcript, reply string) error {
	p.mu.Lock()
	p.results = append(p.results, presented{transcript: t, reply: reply})
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForState(t *testing.T, s *application.Session, want domain.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session never reached %s, stuck in %s", want, s.State())
}

func scratchEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading scratch dir: %v", err)
	}
	return len(entries)
}

type recorderFixture struct {
	source     *mockFrameSource
	controls   *mockControls
	stt        *wavSTT
	presenter  *recordingPresenter
	recorder   *application.Recorder
	scratchDir string
}

func newRecorderFixture(t *testing.T, withChat bool) *recorderFixture {
	t.Helper()
	return newRecorderFixtureWithPoll(t, withChat, 5*time.Millisecond)
}

func newRecorderFixtureWithPoll(t *testing.T, withChat bool, poll time.Duration) *recorderFixture {
	t.Helper()
	logger := discardLogger()

	f := &recorderFixture{
		source:     newMockFrameSource(),
		controls:   newMockControls(),
		stt:        &wavSTT{text: "tell me about composting"},
		presenter:  newRecordingPresenter(),
		scratchDir: t.TempDir(),
	}

	transcription := application.NewTranscription(f.stt, nil, scratch.NewDir(f.scratchDir, logger), 16000, nil, logger)

	var chat *application.Chat
	if withChat {
		chat = application.NewChat(persona.NewRules(1), nil, nil, logger)
	}

	f.recorder = application.NewRecorder(
		f.source,
		f.controls,
		transcription,
		chat,
		f.presenter,
		nil,
		poll,
		logger,
	)
	return f
}

func (f *recorderFixture) run(t *testing.T) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.recorder.Run(ctx) }()
	return cancel, errCh
}

func TestRecorder_TranscribesAndReplies(t *testing.T) {
	f := newRecorderFixture(t, true)
	cancel, errCh := f.run(t)
	defer cancel()

	f.controls.events <- domain.EventStart
	waitForState(t, f.recorder.Session(), domain.StateRecording)

	f.source.emit(0.1, 0.2, 0.3)
	f.source.emit(-0.1, -0.2)
	f.source.emit(0.5)

	f.controls.events <- domain.EventStop

	select {
	case <-f.presenter.done:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for recording to be processed")
	}

	if got := f.stt.callCount(); got != 1 {
		t.Fatalf("transcriber calls: got %d, want 1", got)
	}
	if f.stt.samples[0] != 6 {
		t.Errorf("samples in recording: got %d, want 6", f.stt.samples[0])
	}

	res := f.presenter.results[0]
	if res.transcript.Text != "tell me about composting" {
		t.Errorf("transcript not trimmed: %q", res.transcript.Text)
	}

	var composting []string
	for _, g := range persona.DefaultGroups {
		if g.Name == "composting" {
			composting = g.Responses
		}
	}
	if !slices.Contains(composting, res.reply) {
		t.Errorf("reply %q not from composting pool", res.reply)
	}

	if n := scratchEntries(t, f.scratchDir); n != 0 {
		t.Errorf("scratch files left behind: %d", n)
	}

	f.controls.events <- domain.EventQuit
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run returned %v after quit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not exit after quit")
	}
}

func TestRecorder_EmptyRecordingIsNoop(t *testing.T) {
	f := newRecorderFixture(t, true)
	cancel, errCh := f.run(t)
	defer cancel()

	f.controls.events <- domain.EventStart
	waitForState(t, f.recorder.Session(), domain.StateRecording)
	f.controls.events <- domain.EventStop
	waitForState(t, f.recorder.Session(), domain.StateIdle)

	time.Sleep(50 * time.Millisecond)

	if got := f.stt.callCount(); got != 0 {
		t.Errorf("transcriber called %d times for an empty recording", got)
	}
	if n := scratchEntries(t, f.scratchDir); n != 0 {
		t.Errorf("scratch files created for an empty recording: %d", n)
	}

	f.controls.events <- domain.EventQuit
	if err := <-errCh; err != nil {
		t.Errorf("run: %v", err)
	}
}

func TestRecorder_DropsFramesWhileIdle(t *testing.T) {
	f := newRecorderFixture(t, false)
	cancel, errCh := f.run(t)
	defer cancel()

	<-f.source.started
	f.source.emit(0.9, 0.9, 0.9)

	f.controls.events <- domain.EventToggle
	waitForState(t, f.recorder.Session(), domain.StateRecording)
	f.source.emit(0.25)
	f.controls.events <- domain.EventToggle

	select {
	case <-f.presenter.done:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for recording to be processed")
	}

	if f.stt.samples[0] != 1 {
		t.Errorf("idle frames leaked into recording: got %d samples, want 1", f.stt.samples[0])
	}
	if f.presenter.results[0].reply != "" {
		t.Errorf("reply produced without a chat stage: %q", f.presenter.results[0].reply)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("run after cancel: got %v, want context.Canceled", err)
	}
}

func TestRecorder_QuitWhileRecordingUnblocks(t *testing.T) {
	f := newRecorderFixture(t, false)
	cancel, errCh := f.run(t)
	defer cancel()

	f.controls.events <- domain.EventStart
	waitForState(t, f.recorder.Session(), domain.StateRecording)
	f.source.emit(0.1)

	f.controls.events <- domain.EventQuit

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("quit did not unblock the recorder")
	}

	if got := f.stt.callCount(); got != 0 {
		t.Errorf("open recording should be discarded on quit, transcriber called %d times", got)
	}
}

func TestRecorder_ControlEOFShutsDown(t *testing.T) {
	f := newRecorderFixture(t, false)
	_, errCh := f.run(t)

	close(f.controls.events)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not exit on control EOF")
	}
}

func waitForGeneration(t *testing.T, s *application.Session, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Generation() == want && s.State() == domain.StateRecording {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("recording %d never started, at %d in %s", want, s.Generation(), s.State())
}

func TestRecorder_RestartWithinOnePollKeepsTakesApart(t *testing.T) {
	f := newRecorderFixtureWithPoll(t, false, 200*time.Millisecond)
	cancel, errCh := f.run(t)
	defer cancel()

	f.controls.events <- domain.EventStart
	waitForGeneration(t, f.recorder.Session(), 1)
	f.source.emit(0.1, 0.2, 0.3)

	// stop and start again while the loop is still waiting on the queue
	f.controls.events <- domain.EventToggle
	f.controls.events <- domain.EventToggle
	waitForGeneration(t, f.recorder.Session(), 2)

	f.source.emit(0.4, 0.5)
	f.controls.events <- domain.EventStop

	for i := 0; i < 2; i++ {
		select {
		case <-f.presenter.done:
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for recording %d", i+1)
		}
	}

	if got := f.stt.callCount(); got != 2 {
		t.Fatalf("transcriber calls: got %d, want 2", got)
	}
	if f.stt.samples[0] != 3 || f.stt.samples[1] != 2 {
		t.Errorf("samples per recording: got %v, want [3 2]", f.stt.samples)
	}

	cancel()
	<-errCh
}
