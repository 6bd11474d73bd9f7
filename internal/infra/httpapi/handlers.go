package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"fly-voice/internal/application"
	"fly-voice/internal/domain"
)

const maxChatBody = 1 << 20

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type chatRequest struct {
	Message  string           `json:"message"`
	Messages []domain.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type healthResponse struct {
	Status  string                              `json:"status"`
	Engines map[string]application.EngineStatus `json:"engines"`
}

type modelsResponse struct {
	Engine      string   `json:"engine"`
	Current     string   `json:"current"`
	Models      []string `json:"models"`
	ReplyEngine string   `json:"reply_engine,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	defer r.Body.Close()

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data with an audio file")
		return
	}

	part, err := audioPart(reader)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer part.Close()

	transcript, err := s.transcription.TranscribeUpload(r.Context(), part, part.FileName())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{Text: transcript.Text, Language: transcript.Language})
}

// audioPart returns the first part named "file" or "audio".
func audioPart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no file uploaded", domain.ErrInvalidInput)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading multipart body: %w", domain.ErrInvalidInput, err)
		}
		switch part.FormName() {
		case "file", "audio":
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "no reply engine configured")
		return
	}

	defer r.Body.Close()

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	history := req.Messages
	if len(history) == 0 {
		history = []domain.Message{domain.UserMessage(req.Message)}
	}

	reply, err := s.chat.Reply(r.Context(), history)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := s.engines.Health()

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{Status: status, Engines: s.engines.Statuses()})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelsResponse{
		Engine:      s.models.Transcriber,
		Current:     s.models.Model,
		Models:      s.models.Available,
		ReplyEngine: s.models.Reply,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"status", code,
			"request_id", r.Header.Get(requestIDHeader),
			"error", err,
		)
	}
	writeError(w, code, err.Error())
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
