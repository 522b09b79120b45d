package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"rexpaces/internal/textutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	InboxDir  string `toml:"inbox_dir"`
}

// Analysis contains the chunking, alignment and expansion knobs.
type Analysis struct {
	ChunkDurationSeconds   int     `toml:"chunk_duration_seconds"`
	MinClipDurationSeconds int     `toml:"min_clip_duration_seconds"`
	AlignmentBufferSeconds int     `toml:"alignment_buffer_seconds"`
	MinMatchScore          float64 `toml:"min_match_score"`
}

// Generation selects the text-generation backend and the rate-limit policy
// applied by the generation queue.
type Generation struct {
	// Provider is one of "ollama", "gemini" or "openrouter".
	Provider string `toml:"provider"`
	// MaxRateLimitRetries caps rate-limit retries per request. Zero retries forever.
	MaxRateLimitRetries     int `toml:"max_rate_limit_retries"`
	RateLimitPenaltySeconds int `toml:"rate_limit_penalty_seconds"`
}

// Gemini contains Google Gemini API settings.
type Gemini struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Ollama contains local Ollama server settings.
type Ollama struct {
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains OpenRouter-compatible chat completion settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for rexpaces.
//
// Configuration sections by subsystem:
//   - Paths: artifact, log and watch-inbox directories
//   - Analysis: chunk size, clip length and alignment thresholds
//   - Generation: backend selection and rate-limit retry policy
//   - Gemini, Ollama, LLM: per-backend connection settings
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Analysis   Analysis   `toml:"analysis"`
	Generation Generation `toml:"generation"`
	Gemini     Gemini     `toml:"gemini"`
	Ollama     Ollama     `toml:"ollama"`
	LLM        LLM        `toml:"llm"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rexpaces/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rexpaces.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and output directories. The inbox is only
// created when configured since watch mode is optional.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		if err := os.MkdirAll(c.Paths.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Paths.InboxDir, err)
		}
	}
	return nil
}

// RunOutputDir returns the artifact directory for a transcript: a
// subdirectory of the output dir named after the transcript file stem.
func (c *Config) RunOutputDir(transcriptPath string) string {
	stem := textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(transcriptPath), filepath.Ext(transcriptPath)))
	if stem == "" || stem == "." {
		stem = "transcript"
	}
	return filepath.Join(c.Paths.OutputDir, stem)
}

// ChunkDuration returns the analysis chunk length.
func (c *Config) ChunkDuration() float64 { return float64(c.Analysis.ChunkDurationSeconds) }

// MinClipDuration returns the minimum clip length highlights are grown to.
func (c *Config) MinClipDuration() float64 { return float64(c.Analysis.MinClipDurationSeconds) }

// AlignmentBuffer returns the padding applied around chunk windows when aligning quotes.
func (c *Config) AlignmentBuffer() float64 { return float64(c.Analysis.AlignmentBufferSeconds) }

// RateLimitPenalty returns the per-retry penalty added to rate-limit waits.
func (c *Config) RateLimitPenalty() time.Duration {
	return time.Duration(c.Generation.RateLimitPenaltySeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the OpenRouter connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the OpenRouter connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
