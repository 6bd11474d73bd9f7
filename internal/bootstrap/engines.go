// Package bootstrap builds engines and the shared pipeline pieces from config
// for the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"fly-voice/config"
	"fly-voice/internal/application"
	"fly-voice/internal/infra/anthropic"
	"fly-voice/internal/infra/gemini"
	"fly-voice/internal/infra/llamacpp"
	"fly-voice/internal/infra/openai"
	"fly-voice/internal/infra/whispercpp"
	"fly-voice/internal/persona"
)

// Transcriber is the configured speech-to-text engine plus the model name it
// reports.
type Transcriber struct {
	STT   application.SpeechToText
	Model string
}

func NewTranscriber(cfg config.TranscriberConfig, logger *slog.Logger) (Transcriber, error) {
	switch cfg.Engine {
	case config.TranscriberWhisperCPP:
		return Transcriber{
			STT:   whispercpp.NewTranscriber(cfg.WhisperCPP.Binary, cfg.WhisperCPP.Model, cfg.Language, logger),
			Model: cfg.WhisperCPP.Model,
		}, nil
	case config.TranscriberOpenAI:
		return Transcriber{
			STT:   openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.Language),
			Model: cfg.OpenAI.Model,
		}, nil
	default:
		return Transcriber{}, fmt.Errorf("unknown transcriber engine %q", cfg.Engine)
	}
}

// NewReplyGenerator returns nil for the "none" engine.
func NewReplyGenerator(cfg config.ReplyConfig, logger *slog.Logger) (application.ReplyGenerator, error) {
	instruction := cfg.Persona
	if instruction == "" {
		instruction = persona.DefaultInstruction
	}

	switch cfg.Engine {
	case config.ReplyRules:
		return persona.NewRules(cfg.Seed), nil
	case config.ReplyOpenAI:
		return openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, instruction), nil
	case config.ReplyAnthropic:
		return anthropic.NewClaudeClientWithURL(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL, instruction, cfg.Anthropic.MaxTokens), nil
	case config.ReplyGemini:
		return gemini.NewClientWithURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, instruction), nil
	case config.ReplyLlamaCPP:
		return llamacpp.NewGenerator(cfg.LlamaCPP.Binary, cfg.LlamaCPP.Model, instruction, cfg.LlamaCPP.MaxTokens, logger), nil
	case config.ReplyNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown reply engine %q", cfg.Engine)
	}
}

// Gate wraps an engine's start-up check in a readiness tracker.
func Gate(role, name string, engine any) *application.Engine {
	var load func(ctx context.Context) error
	if l, ok := engine.(application.Loader); ok {
		load = l.Load
	}
	return application.NewEngine(role, name, load)
}
