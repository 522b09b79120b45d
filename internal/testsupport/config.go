package testsupport

import (
	"path/filepath"
	"testing"

	"rexpaces/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to the ollama provider and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "runs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Generation.Provider = config.ProviderOllama
	cfgVal.Ollama.URL = "http://127.0.0.1:11434"
	cfgVal.Ollama.Model = "test-model"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProvider selects the generation backend on the test config.
func WithProvider(provider string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.Provider = provider
	}
}

// WithGeminiKey sets the Gemini API key on the test config.
func WithGeminiKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.APIKey = key
	}
}

// WithInbox enables the watch inbox under the temp base directory.
func WithInbox() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.InboxDir = filepath.Join(b.baseDir, "inbox")
	}
}

// WithChunkDuration overrides the analysis chunk length in seconds.
func WithChunkDuration(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.ChunkDurationSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
