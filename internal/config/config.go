package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"`
	MaxConcurrentChats int    `yaml:"max_concurrent_chats"`
	MaxBodyBytes       int64  `yaml:"max_body_bytes"`
}

func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// CorpusConfig locates the corpus file and describes its layout.
type CorpusConfig struct {
	Path         string `yaml:"path"`
	Separator    string `yaml:"separator"`
	HeaderMarker string `yaml:"header_marker"`
}

// ChunkerConfig configures how passages are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type AnthropicConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string        `yaml:"type"`
	Normalize   bool          `yaml:"normalize"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	TimeoutSecs int           `yaml:"timeout_secs"`
	Gemini      *GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// Timeout bounds one full corpus embedding pass.
func (c EmbedderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// GeneratorConfig selects and configures the generation provider.
type GeneratorConfig struct {
	Type      string           `yaml:"type"`
	Gemini    *GeminiConfig    `yaml:"gemini,omitempty"`
	OpenAI    *OpenAIConfig    `yaml:"openai,omitempty"`
	Anthropic *AnthropicConfig `yaml:"anthropic,omitempty"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type PromptConfig struct {
	SystemInstruction string `yaml:"system_instruction"`
	DocumentLabel     string `yaml:"document_label"`
	MaxContextChars   int    `yaml:"max_context_chars"`
}

// SummarizerConfig selects and configures the corpus summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from path over the defaults, layers environment
// overrides on top and fills in provider defaults. Keys present in the file
// win, including explicit zero values. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragchat/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ranges and provider names.
func (c *AppConfig) Validate() error {
	switch c.Chunker.Type {
	case "document", "sentence":
	default:
		return fmt.Errorf("chunker.type must be document or sentence, got %q", c.Chunker.Type)
	}
	switch c.Embedder.Type {
	case "gemini", "openai", "tfidf":
	default:
		return fmt.Errorf("embedder.type must be gemini, openai or tfidf, got %q", c.Embedder.Type)
	}
	switch c.Generator.Type {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("generator.type must be gemini, openai or anthropic, got %q", c.Generator.Type)
	}
	if c.Corpus.Path == "" {
		return errors.New("corpus.path is required")
	}
	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > 100 {
		return fmt.Errorf("retrieval.top_k must be 1-100, got %d", c.Retrieval.TopK)
	}
	if c.Prompt.MaxContextChars < 0 {
		return fmt.Errorf("prompt.max_context_chars must be >= 0, got %d", c.Prompt.MaxContextChars)
	}
	if c.Chunker.Type == "sentence" && c.Chunker.OverlapSentences >= c.Chunker.SentencesPerChunk {
		return fmt.Errorf("chunker.overlap_sentences must be less than sentences_per_chunk")
	}
	if c.Embedder.TimeoutSecs < 1 {
		return fmt.Errorf("embedder.timeout_secs must be positive, got %d", c.Embedder.TimeoutSecs)
	}
	if c.Server.RequestTimeoutSecs < 1 {
		return fmt.Errorf("server.request_timeout_secs must be positive, got %d", c.Server.RequestTimeoutSecs)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:     ServerConfig{Addr: ":5000", RequestTimeoutSecs: 60, MaxConcurrentChats: 64, MaxBodyBytes: 1 << 20},
		Corpus:     CorpusConfig{Path: "data/corpus.txt", Separator: "---", HeaderMarker: "#"},
		Chunker:    ChunkerConfig{Type: "document"},
		Embedder:   EmbedderConfig{Type: "gemini", TimeoutSecs: 120},
		Generator:  GeneratorConfig{Type: "gemini"},
		Retrieval:  RetrievalConfig{TopK: 2},
		Prompt:     PromptConfig{DocumentLabel: "[document]", MaxContextChars: 8000},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 3},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 60
	}
	if cfg.Server.MaxConcurrentChats == 0 {
		cfg.Server.MaxConcurrentChats = 64
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "data/corpus.txt"
	}
	if cfg.Corpus.Separator == "" {
		cfg.Corpus.Separator = "---"
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "document"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.Concurrency == 0 {
		cfg.Embedder.Concurrency = 4
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 120
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "gemini"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 2
	}
	if cfg.Prompt.DocumentLabel == "" {
		cfg.Prompt.DocumentLabel = "[document]"
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	switch cfg.Embedder.Type {
	case "gemini":
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiConfig{}
		}
		geminiDefaults(cfg.Embedder.Gemini, "text-embedding-004")
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		openAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
	}
	switch cfg.Generator.Type {
	case "gemini":
		if cfg.Generator.Gemini == nil {
			cfg.Generator.Gemini = &GeminiConfig{}
		}
		geminiDefaults(cfg.Generator.Gemini, "gemini-2.5-flash")
	case "openai":
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIConfig{}
		}
		openAIDefaults(cfg.Generator.OpenAI, "gpt-4o-mini")
	case "anthropic":
		if cfg.Generator.Anthropic == nil {
			cfg.Generator.Anthropic = &AnthropicConfig{}
		}
		a := cfg.Generator.Anthropic
		if a.APIKeyEnv == "" {
			a.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
		if a.Model == "" {
			a.Model = "claude-3-5-haiku-latest"
		}
		if a.MaxTokens == 0 {
			a.MaxTokens = 1024
		}
		if a.TimeoutSecs == 0 {
			a.TimeoutSecs = 60
		}
	}
}

func geminiDefaults(g *GeminiConfig, model string) {
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GEMINI_API_KEY"
	}
	if g.Model == "" {
		g.Model = model
	}
}

func openAIDefaults(o *OpenAIConfig, model string) {
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "OPENAI_API_KEY"
	}
	if o.Model == "" {
		o.Model = model
	}
	if o.TimeoutSecs == 0 {
		o.TimeoutSecs = 30
	}
}

// applyEnvOverrides layers process environment over the file values.
func applyEnvOverrides(cfg *AppConfig) {
	if port := getEnv("PORT", ""); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Corpus.Path = getEnv("RAGCHAT_CORPUS", cfg.Corpus.Path)
	cfg.Log.Level = getEnv("RAGCHAT_LOG_LEVEL", cfg.Log.Level)
	cfg.Embedder.Type = getEnv("RAGCHAT_EMBEDDER", cfg.Embedder.Type)
	cfg.Generator.Type = getEnv("RAGCHAT_GENERATOR", cfg.Generator.Type)
	cfg.Retrieval.TopK = getEnvInt("RAGCHAT_TOP_K", cfg.Retrieval.TopK)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
