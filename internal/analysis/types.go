package analysis

import (
	"rexpaces/internal/chunking"
	"rexpaces/internal/highlight"
)

// ChunkSummary is the pass-one digest of one chunk.
type ChunkSummary struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Summary   string  `json:"summary"`
}

// ConversationContext describes the conversation as a whole and steers
// highlight detection.
type ConversationContext struct {
	Topic        string   `json:"topic"`
	Participants []string `json:"participants"`
	KeyPoints    []string `json:"keyPoints"`
	Narrative    string   `json:"narrative"`
}

// Result is everything a run produced.
type Result struct {
	Context    ConversationContext
	Summaries  []ChunkSummary
	Chunks     []chunking.Chunk
	Raw        []highlight.RawHighlight
	Highlights []highlight.ExpandedHighlight
	// Resumed is true when pass one was loaded from disk.
	Resumed bool
}

// DetectedQuote is one entry of a highlight detection response.
type DetectedQuote struct {
	Quote  string `json:"quote"`
	Reason string `json:"reason"`
}
