package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fly-voice/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	persona    string
}

func NewClient(apiKey, model, persona string) *Client {
	return NewClientWithURL(apiKey, model, defaultBaseURL, persona)
}

func NewClientWithURL(apiKey, model, baseURL, persona string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		persona:    persona,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) Load(_ context.Context) error {
	if c.apiKey == "" {
		return errors.New("gemini api key is not set")
	}
	return nil
}

func (c *Client) Reply(ctx context.Context, history []domain.Message) (string, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: c.persona}},
		},
		Contents: make([]content, 0, len(history)),
		GenerationConfig: generationConfig{
			MaxOutputTokens: 512,
			Temperature:     0.7,
		},
	}
	for _, m := range history {
		reqBody.Contents = append(reqBody.Contents, content{
			Role:  role(m.Role),
			Parts: []part{{Text: m.Content}},
		})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// The URL carries the key; report the cause only.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("%w: sending request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini API error %d: %s", domain.ErrUpstream, resp.StatusCode, string(respBody))
	}

	var result response
	if err = json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", domain.ErrUpstream, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: gemini error: %s", domain.ErrUpstream, result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from gemini", domain.ErrUpstream)
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return "", fmt.Errorf("%w: empty response from gemini", domain.ErrUpstream)
	}
	return reply, nil
}

// Gemini names the assistant turn "model".
func role(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "model"
	}
	return "user"
}
