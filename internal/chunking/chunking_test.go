package chunking_test

import (
	"testing"

	"rexpaces/internal/chunking"
	"rexpaces/internal/transcript"
)

func TestGroupSingleChunk(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 1, Text: "hello"},
		{Start: 1, End: 2, Text: "world"},
	}

	chunks := chunking.Group(segments, 300)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.Index != 0 || got.StartTime != 0 || got.EndTime != 300 {
		t.Fatalf("unexpected window: %+v", got)
	}
	if got.Text != "hello world" {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected both segments, got %d", len(got.Segments))
	}
}

func TestGroupAssignsByStartAndSkipsEmptyWindows(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 10, End: 20, Text: " a "},
		{Start: 290, End: 320, Text: "b"},
		{Start: 300, End: 305, Text: "c"},
		{Start: 950, End: 960, Text: "d"},
	}

	chunks := chunking.Group(segments, 300)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantIdx := []int{0, 1, 3}
	for i, c := range chunks {
		if c.Index != wantIdx[i] {
			t.Fatalf("chunk %d index = %d, want %d", i, c.Index, wantIdx[i])
		}
		if c.StartTime != float64(c.Index)*300 || c.EndTime != c.StartTime+300 {
			t.Fatalf("chunk %d has wrong window: %+v", i, c)
		}
	}
	// Segment text is joined verbatim; only the ends are trimmed.
	if chunks[0].Text != "a  b" {
		t.Fatalf("unexpected chunk 0 text %q", chunks[0].Text)
	}
	if len(chunks[0].Segments) != 2 {
		t.Fatalf("segment ending past the boundary must stay in its start chunk")
	}
}

func TestGroupConservesSegments(t *testing.T) {
	var segments []transcript.Segment
	for i := 0; i < 57; i++ {
		start := float64(i) * 13.7
		segments = append(segments, transcript.Segment{Start: start, End: start + 5, Text: "x"})
	}

	for _, duration := range []float64{1, 30, 60, 300, 10000} {
		chunks := chunking.Group(segments, duration)
		total := 0
		for _, c := range chunks {
			total += len(c.Segments)
			for _, seg := range c.Segments {
				if seg.Start < c.StartTime || seg.Start >= c.EndTime {
					t.Fatalf("duration %v: segment at %v outside chunk [%v,%v)", duration, seg.Start, c.StartTime, c.EndTime)
				}
			}
		}
		if total != len(segments) {
			t.Fatalf("duration %v: expected %d segments, got %d", duration, len(segments), total)
		}
	}
}

func TestGroupUnsortedJoinsExistingChunk(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 400, End: 401, Text: "late"},
		{Start: 5, End: 6, Text: "early"},
		{Start: 410, End: 411, Text: "later"},
	}
	chunks := chunking.Group(segments, 300)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Index != 1 || chunks[0].Text != "late later" {
		t.Fatalf("unexpected first chunk %+v", chunks[0])
	}
	if chunks[1].Index != 0 {
		t.Fatalf("unexpected second chunk %+v", chunks[1])
	}
}

func TestGroupEmptyInputs(t *testing.T) {
	if got := chunking.Group(nil, 300); got != nil {
		t.Fatalf("expected nil for no segments, got %v", got)
	}
	if got := chunking.Group([]transcript.Segment{{Start: 0, End: 1}}, 0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}
