package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Word is a single timed token. Timestamps are seconds from the start of the
// recording.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// UnmarshalJSON accepts either "word" or "text" for the token, preferring
// "word" when both are present.
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw struct {
		Word  *string `json:"word"`
		Text  *string `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Start = raw.Start
	w.End = raw.End
	w.Word = ""
	switch {
	case raw.Word != nil && *raw.Word != "":
		w.Word = *raw.Word
	case raw.Text != nil:
		w.Word = *raw.Text
	}
	return nil
}

// Segment is a contiguous span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the speech-to-text output consumed by the pipeline. Segments
// are expected in non-decreasing start order and are never re-sorted.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Text     string    `json:"text,omitempty"`
}

// FullText joins the trimmed, non-empty segment texts with single spaces.
func (t Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Duration returns the end time of the last segment.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// WordCount returns the number of timed words across all segments.
func (t Transcript) WordCount() int {
	total := 0
	for _, seg := range t.Segments {
		total += len(seg.Words)
	}
	return total
}

// Parse decodes a transcript JSON document.
func Parse(data []byte) (Transcript, error) {
	var payload Transcript
	if err := json.Unmarshal(data, &payload); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript json: %w", err)
	}
	for i, seg := range payload.Segments {
		if seg.End < seg.Start {
			return Transcript{}, fmt.Errorf("segment %d: end %.3f before start %.3f", i, seg.End, seg.Start)
		}
	}
	return payload, nil
}

// Load reads and decodes a transcript JSON file.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, err
	}
	return Parse(data)
}
