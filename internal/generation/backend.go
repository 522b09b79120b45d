package generation

import (
	"context"
	"fmt"

	"rexpaces/internal/config"
	"rexpaces/internal/services"
	"rexpaces/internal/services/gemini"
	"rexpaces/internal/services/llm"
	"rexpaces/internal/services/ollama"
)

// NewBackend builds the generator selected by cfg.Generation.Provider.
func NewBackend(ctx context.Context, cfg *config.Config) (Generator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generation", "select backend", "config is nil", nil)
	}
	switch cfg.Generation.Provider {
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "generation", "select backend", "gemini", err)
		}
		return client, nil
	case config.ProviderOpenRouter:
		llmCfg := cfg.GetLLM()
		return llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		}), nil
	case config.ProviderOllama, "":
		return ollama.NewClient(ollama.Config{
			URL:            cfg.Ollama.URL,
			Model:          cfg.Ollama.Model,
			TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generation", "select backend",
			fmt.Sprintf("unsupported provider %q", cfg.Generation.Provider), nil)
	}
}

// QueueOptions translates the generation config section into queue options.
func QueueOptions(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithMaxRetries(cfg.Generation.MaxRateLimitRetries),
		WithPenalty(cfg.RateLimitPenalty()),
	}
}
