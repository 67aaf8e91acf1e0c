// Package config loads the engine's tunables from a TOML file, in the
// teacher's file-based ConfigStore style
// (internal/adapters/driven/config/file), generalized from an
// untyped key/value map to a typed Config struct since this module's
// configuration surface is small and fixed rather than open-ended.
// An alternate YAML loader is provided for callers whose deployment
// tooling already standardizes on YAML, grounded on the same pattern
// seen in the hypnagonia-rag and kxddry-rag-text-search examples.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Chunking controls how documents are split into retrieval units.
type Chunking struct {
	MaxTokensPerChunk int `toml:"max_tokens_per_chunk" yaml:"maxTokensPerChunk"`
	OverlapTokens     int `toml:"overlap_tokens" yaml:"overlapTokens"`
}

// Indexing controls contextual-prefix augmentation at ingest time.
type Indexing struct {
	UseContextualPrefix bool `toml:"use_contextual_prefix" yaml:"useContextualPrefix"`
}

// Hybrid controls the search-time rank fusion and passage assembly
// defaults.
type Hybrid struct {
	WBM25    float64 `toml:"w_bm25" yaml:"wBM25"`
	Limit    int     `toml:"limit" yaml:"limit"`
	Expand   int     `toml:"expand" yaml:"expand"`
	MaxChars int     `toml:"max_chars" yaml:"maxChars"`
}

// Config is the full set of engine tunables.
type Config struct {
	DatabasePath string   `toml:"database_path" yaml:"databasePath"`
	Chunking     Chunking `toml:"chunking" yaml:"chunking"`
	Indexing     Indexing `toml:"indexing" yaml:"indexing"`
	Hybrid       Hybrid   `toml:"hybrid" yaml:"hybrid"`
}

// Default returns the specification's documented defaults.
func Default() Config {
	return Config{
		Chunking: Chunking{
			MaxTokensPerChunk: 650,
			OverlapTokens:     80,
		},
		Indexing: Indexing{
			UseContextualPrefix: true,
		},
		Hybrid: Hybrid{
			WBM25:    0.5,
			Limit:    10,
			Expand:   1,
			MaxChars: 4000,
		},
	}
}

// LoadTOML reads a TOML config file at path, applying its values over
// Default(). A missing file is not an error; Default() is returned
// unchanged.
func LoadTOML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing TOML %s: %w", path, err)
	}
	return cfg, nil
}

// LoadYAML reads a YAML config file at path, applying its values over
// Default(). A missing file is not an error; Default() is returned
// unchanged. This is an alternate entry point for deployments that
// prefer YAML over the primary TOML format.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing YAML %s: %w", path, err)
	}
	return cfg, nil
}
