package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fly-voice/internal/domain"
	"fly-voice/internal/infra/openai"
	"fly-voice/internal/persona"
)

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake"), 0o600))
	return path
}

func TestWhisperClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": "english",
			"duration": 1.5,
			"text":     " How do you eat so much? ",
		})
	}))
	defer srv.Close()

	client := openai.NewWhisperClient("test-key", srv.URL, "", "")
	require.NoError(t, client.Load(context.Background()))

	got, err := client.TranscribeFile(context.Background(), audioFile(t))
	require.NoError(t, err)
	assert.Equal(t, " How do you eat so much? ", got.Text)
	assert.Equal(t, "english", got.Language)
}

func TestWhisperClient_APIErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := openai.NewWhisperClient("wrong", srv.URL, "", "en")
	_, err := client.TranscribeFile(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "401")
}

func TestClients_LoadRequiresKey(t *testing.T) {
	assert.Error(t, openai.NewWhisperClient("", "", "", "").Load(context.Background()))
	assert.Error(t, openai.NewChatClient("", "", "", persona.DefaultInstruction).Load(context.Background()))
}

func streamChunk(w http.ResponseWriter, content string) {
	chunk := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "gpt-4",
		"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": content}}},
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func TestChatClient_AssemblesStream(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		streamChunk(w, "Bzzz! ")
		streamChunk(w, "I love ")
		streamChunk(w, "banana peels.")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := openai.NewChatClient("test-key", srv.URL, "", persona.DefaultInstruction)
	history := []domain.Message{
		domain.UserMessage("hi"),
		{Role: domain.RoleAssistant, Content: "hello!"},
		domain.UserMessage("what do you eat?"),
	}

	reply, err := client.Reply(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Bzzz! I love banana peels.", reply)

	assert.Equal(t, "gpt-4", got.Model)
	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, persona.DefaultInstruction, got.Messages[0].Content)
	assert.Equal(t, "what do you eat?", got.Messages[3].Content)
}

func TestChatClient_ServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	client := openai.NewChatClient("test-key", srv.URL, "", persona.DefaultInstruction)
	_, err := client.Reply(context.Background(), []domain.Message{domain.UserMessage("hi")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
