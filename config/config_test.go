package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	require.Equal(t, 16000, cfg.Audio.SampleRate)
	require.Equal(t, 100*time.Millisecond, cfg.Audio.Poll())
	require.Equal(t, ":5000", cfg.Server.Addr)
	require.Equal(t, TranscriberWhisperCPP, cfg.Transcriber.Engine)
	require.Equal(t, ReplyRules, cfg.Reply.Engine)
	require.Equal(t, "gpt-4", cfg.Reply.OpenAI.Model)
	require.Equal(t, 100, cfg.Reply.LlamaCPP.MaxTokens)
	require.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("FLYVOICE_TEST_OPENAI_KEY", "sk-from-env")

	cfg, err := Parse([]byte(`
transcriber:
  engine: openai
  openai:
    api_key: ${FLYVOICE_TEST_OPENAI_KEY}
reply:
  engine: openai
  seed: 7
  openai:
    api_key: ${FLYVOICE_TEST_OPENAI_KEY}
    model: gpt-4o-mini
`))
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", cfg.Transcriber.OpenAI.APIKey)
	require.Equal(t, "sk-from-env", cfg.Reply.OpenAI.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.Reply.OpenAI.Model)
	require.Equal(t, uint64(7), cfg.Reply.Seed)
	require.Equal(t, "whisper-1", cfg.Transcriber.OpenAI.Model)
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	const key = "FLYVOICE_TEST_DOTENV_KEY"
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=claude-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
reply:
  engine: anthropic
  anthropic:
    api_key: ${`+key+`}
`), 0o600))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "claude-secret", cfg.Reply.Anthropic.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown transcriber", mutate: func(c *Config) { c.Transcriber.Engine = "vosk" }, wantErr: "transcriber.engine"},
		{name: "unknown reply", mutate: func(c *Config) { c.Reply.Engine = "eliza" }, wantErr: "reply.engine"},
		{name: "bad poll interval", mutate: func(c *Config) { c.Audio.PollInterval = "soon" }, wantErr: "poll_interval"},
		{name: "pushover without token", mutate: func(c *Config) { c.Pushover.Enabled = true }, wantErr: "pushover"},
		{name: "negative sample rate", mutate: func(c *Config) { c.Audio.SampleRate = -1 }, wantErr: "sample_rate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("audio: [unterminated"))
	require.Error(t, err)
}

func TestFromEnvPicksUpCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "sk-env", cfg.Transcriber.OpenAI.APIKey)
	require.Equal(t, "sk-env", cfg.Reply.OpenAI.APIKey)
	require.Empty(t, cfg.Reply.Anthropic.APIKey)
	require.Equal(t, ReplyRules, cfg.Reply.Engine)
}
