package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"fly-voice/config"
	"fly-voice/internal/application"
	"fly-voice/internal/infra/metrics"
)

// Models describes the configured engines for GET /models.
type Models struct {
	Transcriber string
	Model       string
	Reply       string
	Available   []string
}

// WhisperSizes lists the whisper model sizes the server knows how to name.
var WhisperSizes = []string{"tiny", "base", "small", "medium", "large"}

type Server struct {
	addr            string
	maxUpload       int64
	corsOrigins     []string
	shutdownTimeout time.Duration

	transcription *application.Transcription
	chat          *application.Chat
	engines       *application.Engines
	models        Models
	metrics       *metrics.Metrics
	limiter       *RateLimiter
	logger        *slog.Logger

	mux     *http.ServeMux
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	running  bool
}

// NewServer builds the HTTP surface. chat may be nil when no reply engine is
// configured; m may be nil to disable /metrics.
func NewServer(
	cfg config.ServerConfig,
	transcription *application.Transcription,
	chat *application.Chat,
	engines *application.Engines,
	models Models,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	s := &Server{
		addr:            cfg.Addr,
		maxUpload:       cfg.MaxUploadBytes,
		corsOrigins:     cfg.CORSOrigins,
		shutdownTimeout: cfg.Shutdown(),
		transcription:   transcription,
		chat:            chat,
		engines:         engines,
		models:          models,
		metrics:         m,
		limiter:         NewRateLimiter(cfg.RateLimit, time.Minute, cfg.TrustProxy),
		logger:          logger,
		mux:             http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /transcribe", s.limiter.Middleware(s.handleTranscribe))
	s.mux.HandleFunc("POST /chat", s.limiter.Middleware(s.handleChat))
	// No rate limiting on probes
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /models", s.handleModels)
	if m != nil {
		s.mux.Handle("GET /metrics", m.Handler())
	}

	s.handler = withRequestID(s.withCORS(s.withAccessLog(s.mux)))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}
