// Package config loads refactory configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"refactory/internal/scoring"
)

// Config holds all refactory configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM collaborator configuration
	LLM LLMConfig `yaml:"llm"`

	// Lint rule thresholds
	Analysis AnalysisConfig `yaml:"analysis"`

	// Quality score weights and acceptance gates
	Scoring scoring.Weights `yaml:"scoring"`

	// Orchestrator behavior
	Refactor RefactorConfig `yaml:"refactor"`

	// Response cache and run history
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the refactor collaborator.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// AnalysisConfig configures the lint rules.
type AnalysisConfig struct {
	MaxFunctionLines int `yaml:"max_function_lines"`
	MaxParams        int `yaml:"max_params"`
	MaxNestingDepth  int `yaml:"max_nesting_depth"`
}

// RefactorConfig configures the orchestrator.
type RefactorConfig struct {
	MaxRetryAttempts int    `yaml:"max_retry_attempts"`
	MaxConcurrent    int    `yaml:"max_concurrent"`
	SkipMarker       string `yaml:"skip_marker"`
	WriteAccepted    bool   `yaml:"write_accepted"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	CacheEnabled bool   `yaml:"cache_enabled"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "refactory",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "60s",
		},

		Analysis: AnalysisConfig{
			MaxFunctionLines: 50,
			MaxParams:        5,
			MaxNestingDepth:  4,
		},

		Scoring: scoring.DefaultWeights(),

		Refactor: RefactorConfig{
			MaxRetryAttempts: 3,
			MaxConcurrent:    4,
			SkipMarker:       "[refactored]",
		},

		Store: StoreConfig{
			DatabasePath: "data/refactory.db",
			CacheEnabled: true,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override afterwards either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("REFACTORY_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("REFACTORY_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if level := os.Getenv("REFACTORY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Refactor.MaxRetryAttempts < 1 {
		return fmt.Errorf("refactor.max_retry_attempts must be at least 1")
	}
	if c.Refactor.MaxConcurrent < 1 {
		return fmt.Errorf("refactor.max_concurrent must be at least 1")
	}
	if c.Scoring.SimilarityFloor < 0 || c.Scoring.SimilarityFloor > 1 {
		return fmt.Errorf("scoring.similarity_floor must be in [0, 1]")
	}
	if c.Scoring.ImprovementMargin < 0 {
		return fmt.Errorf("scoring.improvement_margin must not be negative")
	}
	if c.Analysis.MaxFunctionLines < 1 || c.Analysis.MaxParams < 1 || c.Analysis.MaxNestingDepth < 1 {
		return fmt.Errorf("analysis thresholds must be at least 1")
	}
	if _, err := c.LLMTimeout(); err != nil {
		return fmt.Errorf("llm.timeout: %w", err)
	}
	return nil
}

// LLMTimeout parses the LLM timeout string.
func (c *Config) LLMTimeout() (time.Duration, error) {
	if c.LLM.Timeout == "" {
		return 60 * time.Second, nil
	}
	return time.ParseDuration(c.LLM.Timeout)
}
