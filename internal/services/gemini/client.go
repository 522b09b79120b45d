package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"rexpaces/internal/services"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// defaultRateLimitHint is reported when a quota error carries no retry delay.
const defaultRateLimitHint = "retry in 5s"

// Config captures the Gemini API settings.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
}

// Client generates text with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// New constructs a Gemini client. The API key is required.
func New(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate sends prompt as a single text turn and returns the concatenated
// text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("gemini generate: prompt required")
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyError(err)
	}
	text := candidateText(result)
	if text == "" {
		return "", errors.New("gemini generate: empty response")
	}
	return text, nil
}

// HealthCheck issues a tiny prompt to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Generate(ctx, "Reply with the single word: ok"); err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	return nil
}

// Name identifies the backend in logs.
func (c *Client) Name() string {
	return "gemini:" + c.model
}

func candidateText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// classifyError gives rate-limit responses (HTTP 429 / RESOURCE_EXHAUSTED) a
// "retry in Ns" hint so the generation queue backs off. Every other failure is
// marked as a generation error, which the queue never retries.
func classifyError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || !rateLimited(apiErr) {
		return services.Wrap(services.ErrGeneration, "gemini", "generate", "", err)
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "retry in ") {
		return fmt.Errorf("gemini generate: rate limited: %w", err)
	}
	hint := defaultRateLimitHint
	if delay, ok := retryDelay(apiErr); ok {
		hint = "retry in " + strconv.FormatFloat(delay.Seconds(), 'f', -1, 64) + "s"
	}
	return fmt.Errorf("gemini generate: rate limited, %s: %w", hint, err)
}

func rateLimited(apiErr genai.APIError) bool {
	return apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED")
}

// retryDelay reads the google.rpc.RetryInfo detail, e.g. {"retryDelay": "31s"}.
func retryDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "RetryInfo") {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if delay, err := time.ParseDuration(raw); err == nil && delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
