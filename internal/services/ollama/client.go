package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultURL is the local Ollama server address.
	DefaultURL = "http://localhost:11434"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemma3:12b"

	defaultHTTPTimeout = 10 * time.Minute
)

// Config captures the Ollama server settings.
type Config struct {
	URL            string
	Model          string
	TimeoutSeconds int
}

// Client talks to the Ollama generate API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an Ollama client, applying defaults for empty fields.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type statusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama api error: %s - %s", e.Status, strings.TrimSpace(e.Body))
}

// Generate posts a non-streaming generate request and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("ollama generate: prompt required")
	}
	encoded, err := json.Marshal(generateRequest{Model: c.cfg.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("ollama generate: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ollama generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	var payload generateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("ollama generate: %s", payload.Error)
	}
	return payload.Response, nil
}

// HealthCheck verifies the server is reachable and the model is installed.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama health: new request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("ollama health: %w", err)
	}
	var tags struct {
		Models []struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &tags); err != nil {
		return fmt.Errorf("ollama health: decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.cfg.Model || m.Model == c.cfg.Model {
			return nil
		}
	}
	return fmt.Errorf("ollama health: model %q not installed (run 'ollama pull %s')", c.cfg.Model, c.cfg.Model)
}

// Name identifies the backend in logs.
func (c *Client) Name() string {
	return "ollama:" + c.cfg.Model
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &statusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}
