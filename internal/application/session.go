package application

import (
	"sync"
	"sync/atomic"

	"fly-voice/internal/domain"
)

// Session holds the recorder state shared between the control goroutine, the
// capture callback and the drain loop. All transitions are atomic.
type Session struct {
	state      atomic.Int32
	generation atomic.Uint64

	done chan struct{}
	once sync.Once
}

func NewSession() *Session {
	s := &Session{done: make(chan struct{})}
	s.state.Store(int32(domain.StateIdle))
	return s
}

func (s *Session) State() domain.State {
	return domain.State(s.state.Load())
}

// Generation counts recordings started so far. The drain loop uses it to
// notice a start/stop pair that happened entirely between two polls.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Done is closed once the session reaches Exiting.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Apply performs the transition for event, retrying if another goroutine
// changed the state concurrently.
func (s *Session) Apply(event domain.ControlEvent) (domain.State, error) {
	for {
		cur := s.State()
		next, err := domain.Transition(cur, event)
		if err != nil {
			return cur, err
		}
		if !s.state.CompareAndSwap(int32(cur), int32(next)) {
			continue
		}
		if cur != domain.StateRecording && next == domain.StateRecording {
			s.generation.Add(1)
		}
		if next == domain.StateExiting {
			s.once.Do(func() { close(s.done) })
		}
		return next, nil
	}
}

func (s *Session) Start() bool {
	_, err := s.Apply(domain.EventStart)
	return err == nil
}

func (s *Session) Stop() bool {
	_, err := s.Apply(domain.EventStop)
	return err == nil
}

func (s *Session) Shutdown() {
	_, _ = s.Apply(domain.EventQuit)
}
