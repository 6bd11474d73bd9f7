package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"fly-voice/internal/domain"
)

// WhisperClient transcribes files with the hosted Whisper API.
type WhisperClient struct {
	client   *openai.Client
	apiKey   string
	model    string
	language string
}

func NewWhisperClient(apiKey, baseURL, model, language string) *WhisperClient {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperClient{
		client:   newClient(apiKey, baseURL),
		apiKey:   apiKey,
		model:    model,
		language: language,
	}
}

func (c *WhisperClient) Name() string  { return "openai" }
func (c *WhisperClient) Model() string { return c.model }

func (c *WhisperClient) Load(_ context.Context) error {
	return requireKey(c.apiKey)
}

func (c *WhisperClient) TranscribeFile(ctx context.Context, path string) (domain.Transcript, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: path,
		Language: c.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return domain.Transcript{}, upstream(ctx, "transcription", err)
	}

	lang := resp.Language
	if lang == "" {
		lang = c.language
	}
	return domain.Transcript{Text: resp.Text, Language: lang}, nil
}
