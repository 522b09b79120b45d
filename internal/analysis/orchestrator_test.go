package analysis_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"rexpaces/internal/analysis"
	"rexpaces/internal/artifacts"
	"rexpaces/internal/highlight"
	"rexpaces/internal/logging"
	"rexpaces/internal/services"
	"rexpaces/internal/testsupport"
	"rexpaces/internal/transcript"
)

// scriptedGenerator answers by prompt kind and records every prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string

	summary string
	context string
	detect  func(prompt string) string
	failOn  string
	failErr error
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return "", g.failErr
	}
	switch {
	case strings.Contains(prompt, "summarizing a segment"):
		return "  " + g.summary + "\n", nil
	case strings.Contains(prompt, "SEGMENT SUMMARIES"):
		return g.context, nil
	case strings.Contains(prompt, "identifying highlight-worthy"):
		if g.detect == nil {
			return "[]", nil
		}
		return g.detect(prompt), nil
	}
	return "", errors.New("unexpected prompt")
}

func (g *scriptedGenerator) count(marker string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

const contextJSON = "```json\n{\"topic\": \"Animals\", \"participants\": [\"host\"], \"keyPoints\": [\"foxes\", \"dogs\"], \"narrative\": \"They talk.\"}\n```"

func twoChunkTranscript() transcript.Transcript {
	return testsupport.Transcript(
		testsupport.Segment(0, "the", "quick", "brown", "fox", "jumps"),
		testsupport.Segment(12, "over", "the", "lazy", "dog", "today"),
	)
}

func testOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.ChunkDuration = 10
	return opts
}

func TestRunProducesExpandedHighlights(t *testing.T) {
	store := testsupport.MustOpenStore(t, "")
	gen := &scriptedGenerator{
		summary: "They discuss a fox.",
		context: contextJSON,
		detect: func(prompt string) string {
			if strings.Contains(prompt, "quick brown") {
				return `Here you go: [{"quote": "quick brown fox", "reason": "classic"}]`
			}
			return "[]"
		},
	}

	orch := analysis.New(gen, store, testOptions(), logging.NewNop())
	result, err := orch.Run(context.Background(), twoChunkTranscript())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Resumed {
		t.Fatal("fresh run must not report resume")
	}
	if len(result.Summaries) != 2 || result.Summaries[0].Summary != "They discuss a fox." {
		t.Fatalf("unexpected summaries %+v", result.Summaries)
	}
	if result.Summaries[1].Index != 1 || result.Summaries[1].StartTime != 10 || result.Summaries[1].EndTime != 20 {
		t.Fatalf("unexpected second summary %+v", result.Summaries[1])
	}
	if result.Context.Topic != "Animals" || len(result.Context.KeyPoints) != 2 {
		t.Fatalf("unexpected context %+v", result.Context)
	}
	if len(result.Highlights) != 1 {
		t.Fatalf("expected one highlight, got %d", len(result.Highlights))
	}

	h := result.Highlights[0]
	if h.MatchScore != 1 || h.Quote != "quick brown fox" || h.Reason != "classic" {
		t.Fatalf("unexpected highlight %+v", h.RawHighlight)
	}
	if !h.Expanded() || h.Start != 0 || h.End != 17 {
		t.Fatalf("expected expansion to [0,17], got [%v,%v] expanded=%v", h.Start, h.End, h.Expanded())
	}
	if qs, qe := h.QuoteSpan(); qs != 1 || qe != 4 {
		t.Fatalf("expected quote span [1,4], got [%v,%v]", qs, qe)
	}

	for _, name := range []string{artifacts.SummariesFile, artifacts.ContextFile, artifacts.HighlightsFile} {
		if !store.Exists(name) {
			t.Fatalf("expected %s to be written", name)
		}
	}
	var saved []highlight.ExpandedHighlight
	if err := store.Load(artifacts.HighlightsFile, &saved); err != nil {
		t.Fatalf("load highlights: %v", err)
	}
	if len(saved) != 1 || saved[0].Quote != "quick brown fox" {
		t.Fatalf("unexpected saved highlights %+v", saved)
	}
}

func TestRunPromptsCarryWindowAndContext(t *testing.T) {
	gen := &scriptedGenerator{summary: "s", context: contextJSON}
	orch := analysis.New(gen, nil, testOptions(), logging.NewNop())
	if _, err := orch.Run(context.Background(), twoChunkTranscript()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(gen.prompts) != 5 {
		t.Fatalf("expected 5 prompts (2 summaries, 1 context, 2 detections), got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], "SEGMENT 2 (0:10 - 0:20):") {
		t.Fatalf("summary prompt missing one-based segment header:\n%s", gen.prompts[1])
	}
	if !strings.Contains(gen.prompts[2], "[0:00 - 0:10]: s\n[0:10 - 0:20]: s") {
		t.Fatalf("context prompt missing summary lines:\n%s", gen.prompts[2])
	}
	if !strings.Contains(gen.prompts[3], "- Key themes: foxes, dogs") {
		t.Fatalf("detect prompt missing context:\n%s", gen.prompts[3])
	}
}

func TestRunResumesSavedPassOne(t *testing.T) {
	store := testsupport.MustOpenStore(t, "")
	testsupport.MustSave(t, store, artifacts.SummariesFile, []analysis.ChunkSummary{
		{Index: 0, StartTime: 0, EndTime: 10, Summary: "saved"},
	})
	testsupport.MustSave(t, store, artifacts.ContextFile, analysis.ConversationContext{
		Topic:     "Saved topic",
		KeyPoints: []string{"resume"},
	})

	gen := &scriptedGenerator{context: "not used"}
	orch := analysis.New(gen, store, testOptions(), logging.NewNop())
	result, err := orch.Run(context.Background(), twoChunkTranscript())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Resumed {
		t.Fatal("expected resumed run")
	}
	if result.Context.Topic != "Saved topic" || len(result.Summaries) != 1 {
		t.Fatalf("saved state not loaded verbatim: %+v", result)
	}
	if n := gen.count("summarizing a segment"); n != 0 {
		t.Fatalf("expected no summarize prompts, got %d", n)
	}
	if n := gen.count("SEGMENT SUMMARIES"); n != 0 {
		t.Fatalf("expected no context prompt, got %d", n)
	}
	if n := gen.count("Saved topic"); n != 2 {
		t.Fatalf("expected both detect prompts to use saved context, got %d", n)
	}
}

func TestRunContextParseFailureIsFatal(t *testing.T) {
	store := testsupport.MustOpenStore(t, "")
	gen := &scriptedGenerator{summary: "s", context: "I could not decide."}
	orch := analysis.New(gen, store, testOptions(), logging.NewNop())

	_, err := orch.Run(context.Background(), twoChunkTranscript())
	if !errors.Is(err, services.ErrContextParse) {
		t.Fatalf("expected ErrContextParse, got %v", err)
	}
	if !store.Exists(artifacts.SummariesFile) {
		t.Fatal("summaries should be saved before context extraction")
	}
	if store.Exists(artifacts.ContextFile) || store.Exists(artifacts.HighlightsFile) {
		t.Fatal("no context or highlights should be written after a context failure")
	}
	if n := gen.count("identifying highlight-worthy"); n != 0 {
		t.Fatalf("detection must not run, got %d prompts", n)
	}
}

func TestRunSkipsUnparseableHighlightChunk(t *testing.T) {
	gen := &scriptedGenerator{
		summary: "s",
		context: contextJSON,
		detect: func(prompt string) string {
			if strings.Contains(prompt, "quick brown") {
				return "Sorry, nothing stood out."
			}
			return `[{"quote": "the lazy dog", "reason": "cute"}]`
		},
	}
	orch := analysis.New(gen, nil, testOptions(), logging.NewNop())
	result, err := orch.Run(context.Background(), twoChunkTranscript())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Raw) != 1 || result.Raw[0].ChunkIndex != 1 {
		t.Fatalf("expected only chunk 1 highlight, got %+v", result.Raw)
	}
	if result.Highlights[0].MatchScore != 1 {
		t.Fatalf("expected exact match, got %v", result.Highlights[0].MatchScore)
	}
}

func TestRunUnmatchedQuoteFallsBackToChunkWindow(t *testing.T) {
	gen := &scriptedGenerator{
		summary: "s",
		context: contextJSON,
		detect: func(prompt string) string {
			if strings.Contains(prompt, "quick brown") {
				return `[{"quote": "completely different words here", "reason": "invented"}]`
			}
			return "[]"
		},
	}
	opts := testOptions()
	opts.MinClipDuration = 1
	orch := analysis.New(gen, nil, opts, logging.NewNop())
	result, err := orch.Run(context.Background(), twoChunkTranscript())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	h := result.Highlights[0]
	if h.MatchScore != 0 || h.Start != 0 || h.End != 10 || len(h.Words) != 0 {
		t.Fatalf("expected chunk window sentinel, got %+v", h.AlignedHighlight)
	}
}

func TestRunGenerationErrorStops(t *testing.T) {
	boom := services.Wrap(services.ErrGeneration, "generation", "request", "backend call failed", errors.New("down"))
	gen := &scriptedGenerator{failOn: "summarizing a segment", failErr: boom}
	orch := analysis.New(gen, nil, testOptions(), logging.NewNop())

	_, err := orch.Run(context.Background(), twoChunkTranscript())
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected run to stop after first failure, got %d prompts", len(gen.prompts))
	}
}

func TestRunRejectsNonPositiveChunkDuration(t *testing.T) {
	opts := testOptions()
	opts.ChunkDuration = 0
	orch := analysis.New(&scriptedGenerator{}, nil, opts, logging.NewNop())
	if _, err := orch.Run(context.Background(), twoChunkTranscript()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithChunkDuration(120))
	cfg.Analysis.MinMatchScore = 0.6
	opts := analysis.OptionsFromConfig(cfg)
	if opts.ChunkDuration != 120 || opts.MinClipDuration != 60 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.Align.Buffer != 10 || opts.Align.MinScore != 0.6 {
		t.Fatalf("unexpected align options %+v", opts.Align)
	}
}
