package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.ChunkDurationSeconds <= 0 {
		return errors.New("analysis.chunk_duration_seconds must be positive")
	}
	if c.Analysis.MinClipDurationSeconds < 0 {
		return errors.New("analysis.min_clip_duration_seconds must be >= 0")
	}
	if c.Analysis.MinMatchScore < 0 || c.Analysis.MinMatchScore > 1 {
		return errors.New("analysis.min_match_score must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.Provider {
	case ProviderOllama, ProviderGemini, ProviderOpenRouter:
		return nil
	default:
		return fmt.Errorf("generation.provider %q is not supported (want %s, %s or %s)",
			c.Generation.Provider, ProviderOllama, ProviderGemini, ProviderOpenRouter)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
}

// ValidateBackend reports whether the selected provider has the credentials
// it needs. Load does not call it so config commands work without keys.
func (c *Config) ValidateBackend() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/rexpaces/config.toml"
	}
	switch c.Generation.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'rexpaces config init')", defaultPath)
		}
	case ProviderOpenRouter:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'rexpaces config init')", defaultPath)
		}
	case ProviderOllama:
		if c.Ollama.URL == "" {
			return errors.New("ollama.url must be set")
		}
	}
	return nil
}
