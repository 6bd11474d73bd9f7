package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fly-voice/internal/domain"
)

const (
	RoleTranscriber = "transcriber"
	RoleReply       = "reply"
)

type EngineStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Engine tracks the load state of one backend. It starts not ready; it becomes
// ready once Load succeeds and stays not ready for the process lifetime if
// Load fails.
type Engine struct {
	role string
	name string
	load func(ctx context.Context) error

	mu      sync.RWMutex
	ready   bool
	loading bool
	err     error
}

func NewEngine(role, name string, load func(ctx context.Context) error) *Engine {
	return &Engine{role: role, name: name, load: load, loading: true}
}

func (e *Engine) Role() string { return e.role }
func (e *Engine) Name() string { return e.name }

// Load runs the engine's start-up check once.
func (e *Engine) Load(ctx context.Context) error {
	var err error
	if e.load != nil {
		err = e.load(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	e.err = err
	e.ready = err == nil
	return err
}

func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Engine) Status() EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := EngineStatus{Name: e.name, Ready: e.ready}
	if e.err != nil {
		st.Error = e.err.Error()
	}
	return st
}

// Check fails fast with ErrEngineUnavailable unless the engine is ready.
func (e *Engine) Check() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch {
	case e.ready:
		return nil
	case e.loading:
		return fmt.Errorf("%w: %s %q is still loading", domain.ErrEngineUnavailable, e.role, e.name)
	default:
		return fmt.Errorf("%w: %s %q failed to load: %v", domain.ErrEngineUnavailable, e.role, e.name, e.err)
	}
}

// Engines is the set of backends a process serves with.
type Engines struct {
	list     []*Engine
	observer Observer
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewEngines(observer Observer, logger *slog.Logger, engines ...*Engine) *Engines {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Engines{list: engines, observer: observer, logger: logger}
}

// LoadAsync loads every engine in the background. Wait blocks until all loads finish.
func (s *Engines) LoadAsync(ctx context.Context) {
	for _, e := range s.list {
		s.observer.EngineReady(e.role, false)
		s.wg.Add(1)
		go func(e *Engine) {
			defer s.wg.Done()
			start := time.Now()
			if err := e.Load(ctx); err != nil {
				s.logger.Error("engine failed to load", "role", e.role, "engine", e.name, "error", err)
				s.observer.EngineReady(e.role, false)
				return
			}
			s.logger.Info("engine loaded", "role", e.role, "engine", e.name, "took", time.Since(start))
			s.observer.EngineReady(e.role, true)
		}(e)
	}
}

func (s *Engines) Wait() {
	s.wg.Wait()
}

func (s *Engines) Statuses() map[string]EngineStatus {
	out := make(map[string]EngineStatus, len(s.list))
	for _, e := range s.list {
		out[e.role] = e.Status()
	}
	return out
}

// Health summarises readiness as "ok", "loading" or "error".
func (s *Engines) Health() string {
	status := "ok"
	for _, e := range s.list {
		st := e.Status()
		if st.Ready {
			continue
		}
		if st.Error != "" {
			return "error"
		}
		status = "loading"
	}
	return status
}
