package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"rexpaces/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	inboxDir   string
	ollama     *fakeOllama
}

// fakeOllama answers generate calls by prompt kind.
type fakeOllama struct {
	server   *httptest.Server
	requests atomic.Int32
}

func newFakeOllama(t *testing.T) *fakeOllama {
	t.Helper()
	f := &fakeOllama{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"test-model","model":"test-model"}]}`))
		case "/api/generate":
			f.requests.Add(1)
			var req struct {
				Prompt string `json:"prompt"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(map[string]any{"response": fakeResponse(req.Prompt), "done": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func fakeResponse(prompt string) string {
	switch {
	case strings.Contains(prompt, "summarizing a segment"):
		return "People talk about a fox."
	case strings.Contains(prompt, "SEGMENT SUMMARIES"):
		return `{"topic": "Foxes", "participants": [], "keyPoints": ["speed"], "narrative": "Short."}`
	case strings.Contains(prompt, "quick brown"):
		return `[{"quote": "quick brown fox", "reason": "memorable"}]`
	default:
		return "[]"
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"AI_PROVIDER", "GEMINI_API_KEY", "OLLAMA_API_URL", "OLLAMA_MODEL", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	ollama := newFakeOllama(t)
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(homeDir, ".config", "rexpaces", "config.toml"),
		outputDir:  filepath.Join(base, "runs"),
		inboxDir:   filepath.Join(base, "inbox"),
		ollama:     ollama,
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q
inbox_dir = %q

[analysis]
chunk_duration_seconds = 10

[generation]
provider = "ollama"

[ollama]
url = %q
model = "test-model"
timeout_seconds = 5
`, env.outputDir, filepath.Join(env.baseDir, "logs"), env.inboxDir, env.ollama.server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeTestTranscript(t *testing.T, path string) {
	t.Helper()
	testsupport.WriteTranscript(t, path, testsupport.Transcript(
		testsupport.Segment(0, "the", "quick", "brown", "fox", "jumps"),
		testsupport.Segment(12, "over", "the", "lazy", "dog", "today"),
	))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
