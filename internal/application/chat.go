package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fly-voice/internal/domain"
)

// maxHistory bounds how many messages are forwarded to a generator.
const maxHistory = 20

type Chat struct {
	gen      ReplyGenerator
	gate     *Engine
	observer Observer
	logger   *slog.Logger
}

func NewChat(gen ReplyGenerator, gate *Engine, observer Observer, logger *slog.Logger) *Chat {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Chat{gen: gen, gate: gate, observer: observer, logger: logger}
}

func (c *Chat) Engine() string {
	return c.gen.Name()
}

// Reply validates history and asks the generator for the persona's answer.
// An empty answer from the generator is an upstream failure, never a default reply.
func (c *Chat) Reply(ctx context.Context, history []domain.Message) (string, error) {
	if err := ValidateHistory(history); err != nil {
		return "", err
	}
	if c.gate != nil {
		if err := c.gate.Check(); err != nil {
			return "", err
		}
	}

	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	start := time.Now()
	reply, err := c.gen.Reply(ctx, history)
	if err == nil {
		reply = strings.TrimSpace(reply)
		if reply == "" {
			err = fmt.Errorf("%w: %s returned an empty reply", domain.ErrUpstream, c.gen.Name())
		}
	}
	c.observer.ReplyDone(c.gen.Name(), time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("generating reply with %s: %w", c.gen.Name(), err)
	}

	c.logger.Debug("reply generated", "engine", c.gen.Name(), "chars", len(reply))
	return reply, nil
}

// ValidateHistory requires a non-empty list of user/assistant turns ending
// with a non-blank user message.
func ValidateHistory(history []domain.Message) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: no message provided", domain.ErrInvalidInput)
	}
	for i, m := range history {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unsupported role %q", domain.ErrInvalidInput, i, m.Role)
		}
	}
	last := history[len(history)-1]
	if last.Role != domain.RoleUser {
		return fmt.Errorf("%w: last message must come from the user", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: no message provided", domain.ErrInvalidInput)
	}
	return nil
}
