package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"fly-voice/internal/domain"
)

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func requireKey(apiKey string) error {
	if apiKey == "" {
		return errors.New("openai api key is not set")
	}
	return nil
}

// upstream tags every API failure as ErrUpstream. Context errors pass through
// so callers can tell cancellation apart.
func upstream(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai %s: status %d: %s", domain.ErrUpstream, op, apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("%w: openai %s: %w", domain.ErrUpstream, op, err)
}
