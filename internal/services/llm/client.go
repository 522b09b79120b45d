package llm

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

// DefaultBaseURL is the OpenRouter chat completions endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultAttempts    = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config captures the OpenRouter settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client sends prompts to an OpenRouter chat model.
type Client struct {
	cfg        Config
	httpClient *http.Client

	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	sleeper   func(time.Duration)
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

// WithRetry sets how often transient failures are retried and the
// exponential backoff bounds between attempts.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   defaultAttempts,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the backend in logs.
func (c *Client) Name() string {
	return "openrouter:" + c.cfg.Model
}

// Generate sends prompt as a single user message and returns the reply text.
// Rate-limited responses are returned at once with a "retry in Ns" hint.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("openrouter generate: prompt required")
	}
	return c.send(ctx, "openrouter generate", prompt)
}

// HealthCheck sends a one-word prompt to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.send(ctx, "openrouter health", "Reply with the single word: ok"); err != nil {
		return err
	}
	return nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatReply `json:"message"`
		// Some providers answer with the streaming shape even when stream=false.
		Delta        chatReply `json:"delta"`
		Text         string    `json:"text"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatReply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// reply returns the first non-empty text among the choices, or an
// emptyReplyError describing why there was none.
func (r chatResponse) reply(op string, body []byte) (string, error) {
	if len(r.Choices) == 0 {
		return "", &emptyReplyError{op: op, snippet: snippet(string(body))}
	}
	for _, choice := range r.Choices {
		for _, text := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text = strings.TrimSpace(text); text != "" {
				return text, nil
			}
		}
	}
	first := r.Choices[0]
	return "", &emptyReplyError{
		op:           op,
		finishReason: first.FinishReason,
		refusal:      strings.TrimSpace(first.Message.Refusal + first.Delta.Refusal),
		snippet:      snippet(string(body)),
	}
}

func (c *Client) send(ctx context.Context, op, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s: api key required", op)
	}
	encoded, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}

	attempts := max(c.attempts, 1)
	for attempt := 1; ; attempt++ {
		text, err := c.post(ctx, op, encoded)
		if err == nil {
			return text, nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry || attempt >= attempts {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}

func (c *Client) post(ctx context.Context, op string, encoded []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error (timeout=%s): %w", op, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", newStatusError(op, resp, body)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%s: decode response: %w (body: %s)", op, err, snippet(string(body)))
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(decoded.Error.Message))
	}
	return decoded.reply(op, body)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
