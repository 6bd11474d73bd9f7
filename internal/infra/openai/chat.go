package openai

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"fly-voice/internal/domain"
)

// ChatClient answers in persona using streamed chat completions and returns
// the assembled reply.
type ChatClient struct {
	client  *openai.Client
	apiKey  string
	model   string
	persona string
}

func NewChatClient(apiKey, baseURL, model, persona string) *ChatClient {
	if model == "" {
		model = openai.GPT4
	}
	return &ChatClient{
		client:  newClient(apiKey, baseURL),
		apiKey:  apiKey,
		model:   model,
		persona: persona,
	}
}

func (c *ChatClient) Name() string { return "openai" }

func (c *ChatClient) Load(_ context.Context) error {
	return requireKey(c.apiKey)
}

func (c *ChatClient) Reply(ctx context.Context, history []domain.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.persona,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", upstream(ctx, "chat", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", upstream(ctx, "chat stream", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		reply.WriteString(resp.Choices[0].Delta.Content)
	}

	return strings.TrimSpace(reply.String()), nil
}
