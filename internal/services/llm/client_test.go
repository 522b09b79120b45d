package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chatPayload(choice map[string]any) map[string]any {
	return map[string]any{"choices": []any{choice}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"}, opts...)
}

func TestGenerateSendsSingleUserMessage(t *testing.T) {
	var got chatRequest
	var headers http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatPayload(map[string]any{
			"message": map[string]any{"content": "  A short summary.  "},
		}))
	})
	client.cfg.Title = "rexpaces"

	out, err := client.Generate(context.Background(), "Summarize this")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "A short summary." {
		t.Fatalf("unexpected content %q", out)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Summarize this" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if got.Model != "demo-model" {
		t.Fatalf("unexpected model %q", got.Model)
	}
	if headers.Get("Authorization") != "Bearer test" || headers.Get("X-Title") != "rexpaces" {
		t.Fatalf("unexpected headers %v", headers)
	}
	if client.Name() != "openrouter:demo-model" {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestGenerateAcceptsDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": "from delta"}},
		"legacy": {"finish_reason": "stop", "text": "from text"},
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(chatPayload(choice))
			})
			out, err := client.Generate(context.Background(), "prompt")
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if !strings.HasPrefix(out, "from ") {
				t.Fatalf("unexpected content %q", out)
			}
		})
	}
}

func TestGenerateEmptyContentReportsSnippet(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(chatPayload(map[string]any{
			"finish_reason": "length",
			"message":       map[string]any{"content": ""},
		}))
	}, WithRetry(2, 0, 0), WithSleeper(func(time.Duration) {}))

	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected generate to fail")
	}
	for _, want := range []string{"failed after 2 attempts", "empty content", `finish_reason="length"`, "response_snippet="} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGenerateRetriesEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	var slept []time.Duration
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = "third time lucky"
		}
		_ = json.NewEncoder(w).Encode(chatPayload(map[string]any{
			"message": map[string]any{"content": content},
		}))
	}, WithRetry(5, time.Second, 10*time.Second), WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	out, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "third time lucky" || calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", out, calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("expected doubling backoff, got %v", slept)
	}
}

func TestGenerateSurfacesRateLimitAsRetryHint(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		want       string
	}{
		{"header", "7", "retry in 7s"},
		{"no header", "", "retry in 1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			var slept []time.Duration
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"slow down"}`))
			}, WithRetry(5, time.Second, 10*time.Second), WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

			_, err := client.Generate(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected rate limit error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
			if calls != 1 || len(slept) != 0 {
				t.Fatalf("429 must not be retried inside the client: calls=%d slept=%v", calls, slept)
			}
		})
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls int
	var slept []time.Duration
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(chatPayload(map[string]any{
			"message": map[string]any{"content": "ok"},
		}))
	}, WithRetry(3, 0, 10*time.Second), WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	out, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "ok" || calls != 2 {
		t.Fatalf("unexpected result %q after %d calls", out, calls)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected Retry-After sleep of 2s, got %v", slept)
	}
}

func TestGenerateClientErrorsFailImmediately(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"quota project 429 missing"}}`))
	}, WithRetry(5, 0, 0), WithSleeper(func(time.Duration) {}))

	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "retry in") {
		t.Fatalf("400 must not carry a retry hint: %v", err)
	}
	if !strings.Contains(err.Error(), "http 400") || calls != 1 {
		t.Fatalf("unexpected error %v after %d calls", err, calls)
	}
}

func TestGenerateReportsAPIErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	})
	_, err := client.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatPayload(map[string]any{
			"message": map[string]any{"content": "ok"},
		}))
	})
	if err := ok.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	denied := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := denied.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestGenerateRequiresKeyAndPrompt(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected missing api key error")
	}
	client = NewClient(Config{APIKey: "key"})
	if _, err := client.Generate(context.Background(), "  "); err == nil {
		t.Fatal("expected missing prompt error")
	}
	if client.cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected default base url %q", client.cfg.BaseURL)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got, ok := parseRetryAfter("12"); !ok || got != 12*time.Second {
		t.Fatalf("parseRetryAfter(12) = %v, %v", got, ok)
	}
	for _, value := range []string{"", "-1", "soon"} {
		if _, ok := parseRetryAfter(value); ok {
			t.Fatalf("parseRetryAfter(%q) should fail", value)
		}
	}
}
