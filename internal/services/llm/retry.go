package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultRateLimitWait is reported when a 429 carries no Retry-After header.
const defaultRateLimitWait = time.Second

type statusError struct {
	op         string
	code       int
	body       string
	retryAfter time.Duration
}

func newStatusError(op string, resp *http.Response, body []byte) *statusError {
	retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
	return &statusError{op: op, code: resp.StatusCode, body: snippet(string(body)), retryAfter: retryAfter}
}

func (e *statusError) Error() string {
	if e.code == http.StatusTooManyRequests {
		wait := e.retryAfter
		if wait <= 0 {
			wait = defaultRateLimitWait
		}
		// The generation queue keys its backoff on "retry in Ns".
		return fmt.Sprintf("%s: http %d: rate limited, retry in %ss: %s",
			e.op, e.code, strconv.FormatFloat(wait.Seconds(), 'f', -1, 64), e.body)
	}
	return fmt.Sprintf("%s: http %d: %s", e.op, e.code, e.body)
}

type emptyReplyError struct {
	op           string
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.snippet)
}

// retryDelay decides whether err is transient for this client. Rate limits
// are never retried here so the generation queue stays the single owner of
// that backoff.
func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyReplyError
	if errors.As(err, &empty) {
		return c.backoff(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if status.code != http.StatusRequestTimeout && status.code < http.StatusInternalServerError {
			return 0, false
		}
		if status.retryAfter > 0 {
			if c.maxDelay > 0 {
				return min(status.retryAfter, c.maxDelay), true
			}
			return status.retryAfter, true
		}
		return c.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles baseDelay per completed attempt, capped at maxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	if c.baseDelay <= 0 {
		return 0
	}
	delay := c.baseDelay
	for i := 1; i < attempt && delay < c.maxDelay; i++ {
		delay *= 2
	}
	if c.maxDelay > 0 {
		delay = min(delay, c.maxDelay)
	}
	return delay
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
