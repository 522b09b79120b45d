package highlight

import "rexpaces/internal/transcript"

// RawHighlight is a quote the model picked out of one chunk.
type RawHighlight struct {
	ChunkIndex     int     `json:"chunkIndex"`
	ChunkStartTime float64 `json:"chunkStartTime"`
	ChunkEndTime   float64 `json:"chunkEndTime"`
	Quote          string  `json:"quote"`
	Reason         string  `json:"reason"`
}

// AlignedHighlight is a RawHighlight pinned to transcript time. MatchScore is
// 0 when neither word alignment nor the segment text fallback found the
// quote; Start/End then cover the chunk window and Words is empty.
type AlignedHighlight struct {
	RawHighlight
	Start      float64           `json:"start"`
	End        float64           `json:"end"`
	Words      []transcript.Word `json:"words"`
	MatchScore float64           `json:"matchScore"`
}

// Duration returns End - Start.
func (h AlignedHighlight) Duration() float64 {
	return h.End - h.Start
}

// ExpandedHighlight is an AlignedHighlight grown to whole segments. When the
// span was grown, Start/End/Words describe the clip and the Quote* fields keep
// the aligned quote span.
type ExpandedHighlight struct {
	AlignedHighlight
	QuoteStart *float64          `json:"quoteStart,omitzero"`
	QuoteEnd   *float64          `json:"quoteEnd,omitzero"`
	QuoteWords []transcript.Word `json:"quoteWords,omitzero"`
}

// Expanded reports whether the span was grown beyond the aligned quote.
func (h ExpandedHighlight) Expanded() bool {
	return h.QuoteStart != nil
}

// QuoteSpan returns the aligned quote bounds, which equal Start/End for
// highlights that were not expanded.
func (h ExpandedHighlight) QuoteSpan() (float64, float64) {
	if h.QuoteStart == nil || h.QuoteEnd == nil {
		return h.Start, h.End
	}
	return *h.QuoteStart, *h.QuoteEnd
}

// IndexedWord is a normalized transcript word tagged with its segment.
type IndexedWord struct {
	Word         string  `json:"word"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	SegmentIndex int     `json:"segmentIndex"`
}

// Timed drops the segment tag.
func (w IndexedWord) Timed() transcript.Word {
	return transcript.Word{Word: w.Word, Start: w.Start, End: w.End}
}

// Match is the best window Align found for a quote.
type Match struct {
	Start float64
	End   float64
	Words []transcript.Word
	Score float64
}
