package config

const (
	defaultOutputDir               = "~/.local/share/rexpaces/runs"
	defaultLogDir                  = "~/.local/share/rexpaces/logs"
	defaultChunkDurationSeconds    = 300
	defaultMinClipDurationSeconds  = 60
	defaultAlignmentBufferSeconds  = 10
	defaultMinMatchScore           = 0.5
	defaultProvider                = ProviderOllama
	defaultRateLimitPenaltySeconds = 60
	defaultGeminiModel             = "gemini-2.5-flash"
	defaultOllamaURL               = "http://localhost:11434"
	defaultOllamaModel             = "gemma3:12b"
	defaultOllamaTimeoutSeconds    = 600
	defaultLLMBaseURL              = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                = "google/gemini-2.5-flash"
	defaultLLMReferer              = "https://github.com/rexpaces/rexpaces"
	defaultLLMTitle                = "rexpaces"
	defaultLLMTimeoutSeconds       = 120
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Supported generation providers.
const (
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Default returns a Config populated with repository defaults. The provider is
// left empty so normalize can fall back to AI_PROVIDER.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Analysis: Analysis{
			ChunkDurationSeconds:   defaultChunkDurationSeconds,
			MinClipDurationSeconds: defaultMinClipDurationSeconds,
			AlignmentBufferSeconds: defaultAlignmentBufferSeconds,
			MinMatchScore:          defaultMinMatchScore,
		},
		Generation: Generation{
			RateLimitPenaltySeconds: defaultRateLimitPenaltySeconds,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Ollama: Ollama{
			TimeoutSeconds: defaultOllamaTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
