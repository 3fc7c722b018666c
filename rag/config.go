package rag

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all tunables, fixed at process start.
type Config struct {
	Addr            string `yaml:"addr"`
	EmbeddingModel  string `yaml:"embedding_model"`
	EmbeddingDim    int    `yaml:"embedding_dim"`
	CompletionModel string `yaml:"completion_model"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	TopK            int    `yaml:"top_k"`
	MaxTokens       int    `yaml:"max_tokens"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		EmbeddingModel:  "text-embedding-3-small",
		EmbeddingDim:    1536,
		CompletionModel: "gpt-4o-mini",
		ChunkSize:       500,
		ChunkOverlap:    100,
		TopK:            5,
		MaxTokens:       300,
		TimeoutSecs:     60,
	}
}

// LoadConfig reads a YAML config from path. A missing file yields the
// defaults; an unset field keeps its default value. The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot safely run with.
func (c Config) Validate() error {
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive, got %d", c.EmbeddingDim)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout_secs must be positive, got %d", c.TimeoutSecs)
	}
	return nil
}
