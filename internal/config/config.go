// Package config holds the run configuration and the persisted config
// snapshot that determines whether an existing derived store is still valid.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Default run parameters. They mirror the published dataset defaults.
const (
	DefaultCorpusPath         = "corpus.jsonl"
	DefaultDataDir            = "data"
	DefaultModel              = "BAAI/bge-small-en-v1.5"
	DefaultChunkSize          = 512
	DefaultChunkingBatchSize  = 4096
	DefaultEmbeddingBatchSize = 32
)

// Config represents the complete oale run configuration.
type Config struct {
	// CorpusPath is the path to the corpus JSONL file.
	CorpusPath string `yaml:"corpus_path"`

	// DataDir is the directory holding the three derived stores and the
	// config snapshot.
	DataDir string `yaml:"data_dir"`

	// Model is the embedding model identifier.
	Model string `yaml:"model"`

	// ChunkSize is the maximum number of tokens a chunk may contain,
	// including its context header.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkingBatchSize is the number of documents dispatched to the
	// parallel chunking workers at once.
	ChunkingBatchSize int `yaml:"chunking_batch_size"`

	// EmbeddingBatchSize is the number of chunks embedded per backend call.
	EmbeddingBatchSize int `yaml:"embedding_batch_size"`

	// Workers is the size of the chunking worker pool.
	Workers int `yaml:"workers"`

	// Backend selects the embedding backend ("ollama" or "static").
	Backend string `yaml:"backend"`

	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`

	// CacheSize is the number of chunk embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		CorpusPath:         DefaultCorpusPath,
		DataDir:            DefaultDataDir,
		Model:              DefaultModel,
		ChunkSize:          DefaultChunkSize,
		ChunkingBatchSize:  DefaultChunkingBatchSize,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		Workers:            runtime.NumCPU(),
		Backend:            "ollama",
		OllamaHost:         "http://localhost:11434",
		CacheSize:          1000,
	}
}

// Load reads configuration from a yaml file layered over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers OALE_* environment variables over the file values. Flags
// still override both.
func (c *Config) applyEnv() {
	if v := os.Getenv("OALE_CORPUS_PATH"); v != "" {
		c.CorpusPath = v
	}
	if v := os.Getenv("OALE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OALE_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("OALE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("OALE_OLLAMA_HOST"); v != "" {
		c.OllamaHost = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.CorpusPath == "" {
		return fmt.Errorf("corpus_path must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkingBatchSize <= 0 {
		return fmt.Errorf("chunking_batch_size must be positive, got %d", c.ChunkingBatchSize)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("embedding_batch_size must be positive, got %d", c.EmbeddingBatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.Backend {
	case "ollama", "static":
	default:
		return fmt.Errorf("backend must be \"ollama\" or \"static\", got %q", c.Backend)
	}
	return nil
}

// Absolutize resolves CorpusPath and DataDir against the working directory.
func (c *Config) Absolutize() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if !filepath.IsAbs(c.CorpusPath) {
		c.CorpusPath = filepath.Join(cwd, c.CorpusPath)
	}
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(cwd, c.DataDir)
	}
	return nil
}
