package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeGeneration()
	c.normalizeGemini()
	c.normalizeOllama()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.InboxDir = strings.TrimSpace(c.Paths.InboxDir)
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.AlignmentBufferSeconds < 0 {
		c.Analysis.AlignmentBufferSeconds = 0
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.Provider = strings.ToLower(strings.TrimSpace(c.Generation.Provider))
	if c.Generation.Provider == "" {
		if value, ok := os.LookupEnv("AI_PROVIDER"); ok {
			c.Generation.Provider = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = defaultProvider
	}
	if c.Generation.MaxRateLimitRetries < 0 {
		c.Generation.MaxRateLimitRetries = 0
	}
	if c.Generation.RateLimitPenaltySeconds < 0 {
		c.Generation.RateLimitPenaltySeconds = 0
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
}

func (c *Config) normalizeOllama() {
	c.Ollama.URL = strings.TrimSpace(c.Ollama.URL)
	if c.Ollama.URL == "" {
		if value, ok := os.LookupEnv("OLLAMA_API_URL"); ok {
			c.Ollama.URL = strings.TrimSpace(value)
		}
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaultOllamaURL
	}
	c.Ollama.URL = strings.TrimRight(c.Ollama.URL, "/")
	c.Ollama.Model = strings.TrimSpace(c.Ollama.Model)
	if c.Ollama.Model == "" {
		if value, ok := os.LookupEnv("OLLAMA_MODEL"); ok {
			c.Ollama.Model = strings.TrimSpace(value)
		}
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaultOllamaModel
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		c.Ollama.TimeoutSeconds = defaultOllamaTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
