package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rexpaces/internal/transcript"
)

// Segment builds a segment starting at start with one word per second.
func Segment(start float64, tokens ...string) transcript.Segment {
	words := make([]transcript.Word, 0, len(tokens))
	for i, tok := range tokens {
		at := start + float64(i)
		words = append(words, transcript.Word{Word: tok, Start: at, End: at + 1})
	}
	return transcript.Segment{
		Start: start,
		End:   start + float64(len(tokens)),
		Text:  strings.Join(tokens, " "),
		Words: words,
	}
}

// Transcript wraps segments into a transcript.
func Transcript(segments ...transcript.Segment) transcript.Transcript {
	return transcript.Transcript{Segments: segments}
}

// WriteTranscript stores tr as JSON at path, creating parent directories.
func WriteTranscript(t testing.TB, path string, tr transcript.Transcript) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
