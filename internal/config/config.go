package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ragloc/internal/domain"
)

// InputConfig names the documents to load.
type InputConfig struct {
	Paths []string `yaml:"paths"`
}

// OpenAIConfig holds configuration for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// CacheConfig configures the persistent embedding cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string        `yaml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
	Cache  CacheConfig   `yaml:"cache"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// IndexConfig selects the similarity metric and the index backend.
type IndexConfig struct {
	Metric  string        `yaml:"metric"`
	Backend string        `yaml:"backend"`
	Qdrant  *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieveConfig configures query-time retrieval.
type RetrieveConfig struct {
	TopK            int  `yaml:"top_k"`
	LexicalFallback bool `yaml:"lexical_fallback"`
}

// GeneratorConfig selects the answer generation provider.
type GeneratorConfig struct {
	Type      string        `yaml:"type"`
	MaxTokens int           `yaml:"max_tokens"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Input      InputConfig      `yaml:"input"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Index      IndexConfig      `yaml:"index"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads the config at path over the defaults. The file must exist.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
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
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
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

// Normalize fills defaults for fields left empty, e.g. after flag overrides.
func (c *AppConfig) Normalize() { applyConfigDefaults(c) }

// Validate rejects unknown component types and out-of-range values.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "tfidf", "openai":
	default:
		return fmt.Errorf("unknown embedder: %q", c.Embedder.Type)
	}
	switch c.Chunker.Type {
	case "sentence", "period":
	default:
		return fmt.Errorf("unknown chunker: %q", c.Chunker.Type)
	}
	if _, err := domain.ParseMetric(c.Index.Metric); err != nil {
		return fmt.Errorf("index.metric %q: %w", c.Index.Metric, err)
	}
	switch c.Index.Backend {
	case "auto", "flat":
	case "qdrant":
		if c.Index.Qdrant == nil || c.Index.Qdrant.URL == "" {
			return errors.New("qdrant backend selected but index.qdrant.url is empty")
		}
	default:
		return fmt.Errorf("index.backend %q: %w", c.Index.Backend, domain.ErrUnknownBackend)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	switch c.Generator.Type {
	case "none", "openai":
	default:
		return fmt.Errorf("unknown generator: %q", c.Generator.Type)
	}
	switch c.Summarizer.Type {
	case "frequency", "none":
	default:
		return fmt.Errorf("unknown summarizer: %q", c.Summarizer.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

// Default returns the built-in configuration: offline TF-IDF embeddings,
// normalized inner-product search, no generation.
func Default() *AppConfig {
	return &AppConfig{
		Input:      InputConfig{Paths: []string{"docs.txt"}},
		Embedder:   EmbedderConfig{Type: "tfidf", Cache: CacheConfig{Path: ".rag/embeddings.db"}},
		Chunker:    ChunkerConfig{Type: "sentence", SentencesPerChunk: 1},
		Index:      IndexConfig{Metric: "ip", Backend: "auto"},
		Retrieve:   RetrieveConfig{TopK: 3, LexicalFallback: true},
		Generator:  GeneratorConfig{Type: "none", MaxTokens: 100},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 3},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	d := Default()
	if len(cfg.Input.Paths) == 0 {
		cfg.Input.Paths = d.Input.Paths
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = d.Embedder.Type
	}
	if cfg.Embedder.Cache.Path == "" {
		cfg.Embedder.Cache.Path = d.Embedder.Cache.Path
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = d.Chunker.Type
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = d.Chunker.SentencesPerChunk
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = d.Index.Metric
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = d.Index.Backend
	}
	if cfg.Retrieve.TopK == 0 {
		cfg.Retrieve.TopK = d.Retrieve.TopK
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = d.Generator.Type
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = d.Generator.MaxTokens
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = d.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = d.Summarizer.MaxSentences
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIConfig{}
	}
	if cfg.Generator.Type == "openai" && cfg.Generator.OpenAI == nil {
		cfg.Generator.OpenAI = &OpenAIConfig{}
	}
	openAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	openAIDefaults(cfg.Generator.OpenAI, "gpt-4o-mini", 60)
	if q := cfg.Index.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "rag_chunks"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
}

func openAIDefaults(c *OpenAIConfig, model string, timeout int) {
	if c == nil {
		return
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeout
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
}
