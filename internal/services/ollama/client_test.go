package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeneratePostsNonStreamingRequest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "a summary", "done": true})
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL + "/"})
	out, err := client.Generate(context.Background(), "summarize")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "a summary" {
		t.Fatalf("unexpected response %q", out)
	}
	if got.Model != DefaultModel || got.Prompt != "summarize" || got.Stream {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestGenerateReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Model: "x"})
	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestGenerateUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{URL: url})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil || !strings.Contains(err.Error(), "ollama request failed") {
		t.Fatalf("expected request failure, got %v", err)
	}
}

func TestHealthCheckFindsModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []any{map[string]any{"name": "gemma3:12b", "model": "gemma3:12b"}},
		})
	}))
	defer server.Close()

	if err := NewClient(Config{URL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if err := NewClient(Config{URL: server.URL, Model: "llama3"}).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected missing model error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.cfg.URL != DefaultURL || client.Name() != "ollama:"+DefaultModel {
		t.Fatalf("unexpected defaults %+v", client.cfg)
	}
}
