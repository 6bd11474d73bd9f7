package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TranscriberWhisperCPP = "whisper-cpp"
	TranscriberOpenAI     = "openai"

	ReplyRules     = "rules"
	ReplyOpenAI    = "openai"
	ReplyAnthropic = "anthropic"
	ReplyGemini    = "gemini"
	ReplyLlamaCPP  = "llama-cpp"
	ReplyNone      = "none"
)

type Config struct {
	Audio       AudioConfig       `yaml:"audio"`
	Server      ServerConfig      `yaml:"server"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Reply       ReplyConfig       `yaml:"reply"`
	Pushover    PushoverConfig    `yaml:"pushover"`
	Log         LogConfig         `yaml:"log"`
}

type AudioConfig struct {
	SampleRate      int    `yaml:"sample_rate"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	PollInterval    string `yaml:"poll_interval"`
	ScratchDir      string `yaml:"scratch_dir"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
	RateLimit       int      `yaml:"rate_limit"`
	TrustProxy      bool     `yaml:"trust_proxy"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

type TranscriberConfig struct {
	Engine     string           `yaml:"engine"`
	Language   string           `yaml:"language"`
	WhisperCPP WhisperCPPConfig `yaml:"whisper_cpp"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
}

type WhisperCPPConfig struct {
	Binary string `yaml:"binary"`
	Model  string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type ReplyConfig struct {
	Engine    string          `yaml:"engine"`
	Persona   string          `yaml:"persona"`
	Seed      uint64          `yaml:"seed"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	LlamaCPP  LlamaCPPConfig  `yaml:"llama_cpp"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type LlamaCPPConfig struct {
	Binary    string `yaml:"binary"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path. A .env file next to it, when present, is
// loaded first so that ${VAR} references can be supplied without exporting them.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// envTemplate supplies credentials from the environment when no file is given.
const envTemplate = `
transcriber:
  openai:
    api_key: ${OPENAI_API_KEY}
reply:
  openai:
    api_key: ${OPENAI_API_KEY}
  anthropic:
    api_key: ${ANTHROPIC_API_KEY}
  gemini:
    api_key: ${GEMINI_API_KEY}
pushover:
  token: ${PUSHOVER_TOKEN}
  user_key: ${PUSHOVER_USER_KEY}
`

// FromEnv returns the defaults with credentials read from the environment
// and from a .env file in the working directory.
func FromEnv() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return Parse([]byte(envTemplate))
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.Audio.PollInterval == "" {
		c.Audio.PollInterval = "100ms"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 25 << 20
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.CORSOrigins == nil {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Transcriber.Engine == "" {
		c.Transcriber.Engine = TranscriberWhisperCPP
	}
	if c.Transcriber.WhisperCPP.Binary == "" {
		c.Transcriber.WhisperCPP.Binary = "whisper-cli"
	}
	if c.Transcriber.WhisperCPP.Model == "" {
		c.Transcriber.WhisperCPP.Model = "models/ggml-base.en.bin"
	}
	if c.Transcriber.OpenAI.Model == "" {
		c.Transcriber.OpenAI.Model = "whisper-1"
	}
	if c.Reply.Engine == "" {
		c.Reply.Engine = ReplyRules
	}
	if c.Reply.OpenAI.Model == "" {
		c.Reply.OpenAI.Model = "gpt-4"
	}
	if c.Reply.Anthropic.Model == "" {
		c.Reply.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Reply.Anthropic.MaxTokens == 0 {
		c.Reply.Anthropic.MaxTokens = 512
	}
	if c.Reply.Gemini.Model == "" {
		c.Reply.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Reply.LlamaCPP.Binary == "" {
		c.Reply.LlamaCPP.Binary = "llama-cli"
	}
	if c.Reply.LlamaCPP.MaxTokens == 0 {
		c.Reply.LlamaCPP.MaxTokens = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive"))
	}
	if c.Audio.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be positive"))
	}
	if _, err := time.ParseDuration(c.Audio.PollInterval); err != nil {
		errs = append(errs, fmt.Errorf("audio.poll_interval: %w", err))
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout: %w", err))
	}
	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must not be negative"))
	}

	switch c.Transcriber.Engine {
	case TranscriberWhisperCPP, TranscriberOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown transcriber.engine %q", c.Transcriber.Engine))
	}

	switch c.Reply.Engine {
	case ReplyRules, ReplyOpenAI, ReplyAnthropic, ReplyGemini, ReplyLlamaCPP, ReplyNone:
	default:
		errs = append(errs, fmt.Errorf("unknown reply.engine %q", c.Reply.Engine))
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, fmt.Errorf("pushover enabled but token or user_key is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Poll is the consumer wait boundary used by the recorder loop.
func (a AudioConfig) Poll() time.Duration {
	d, err := time.ParseDuration(a.PollInterval)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

func (s ServerConfig) Shutdown() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
