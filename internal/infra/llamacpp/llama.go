package llamacpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"fly-voice/internal/domain"
)

// Generator runs a llama.cpp binary once per reply with an instruction-style
// prompt built from the persona and the latest user message.
type Generator struct {
	binary    string
	model     string
	persona   string
	maxTokens int
	logger    *slog.Logger
}

func NewGenerator(binary, model, persona string, maxTokens int, logger *slog.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = 100
	}
	return &Generator{
		binary:    binary,
		model:     model,
		persona:   persona,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (g *Generator) Name() string {
	return "llama-cpp"
}

func (g *Generator) Load(_ context.Context) error {
	if _, err := exec.LookPath(g.binary); err != nil {
		return fmt.Errorf("locating llama binary: %w", err)
	}
	if _, err := os.Stat(g.model); err != nil {
		return fmt.Errorf("checking llama model: %w", err)
	}
	return nil
}

// Prompt renders the instruction template for one user message.
func Prompt(persona, message string) string {
	return "### Instruction:\n" + persona + "\n\n### User:\n" + message + "\n\n### Response:\n"
}

func (g *Generator) Reply(ctx context.Context, history []domain.Message) (string, error) {
	text := domain.LastUserText(history)
	if text == "" {
		return "", fmt.Errorf("%w: no message provided", domain.ErrInvalidInput)
	}

	prompt := Prompt(g.persona, text)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.binary, "-m", g.model, "-p", prompt, "-n", strconv.Itoa(g.maxTokens))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: llama exited with %d: %s", domain.ErrUpstream, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: running llama: %w", domain.ErrUpstream, err)
	}

	g.logger.Debug("llama finished", "model", g.model, "output_bytes", stdout.Len())
	return stripPrompt(stdout.String(), prompt), nil
}

// stripPrompt drops the prompt llama.cpp echoes before its completion.
func stripPrompt(out, prompt string) string {
	if i := strings.Index(out, prompt); i >= 0 {
		out = out[i+len(prompt):]
	} else if i := strings.LastIndex(out, "### Response:"); i >= 0 {
		out = out[i+len("### Response:"):]
	}
	return strings.TrimSpace(out)
}
