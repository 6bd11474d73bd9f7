package application

import (
	"context"

	"fly-voice/internal/domain"
)

// SpeechToText turns an audio container on disk into text. Implementations
// must tolerate concurrent TranscribeFile calls.
type SpeechToText interface {
	Name() string
	Load(ctx context.Context) error
	TranscribeFile(ctx context.Context, path string) (domain.Transcript, error)
}
