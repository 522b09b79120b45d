package highlight

import "rexpaces/internal/transcript"

// DefaultMinClipDuration is the clip length highlights are grown to.
const DefaultMinClipDuration = 60.0

// Expand grows a short highlight to whole transcript segments until it lasts
// at least minDuration seconds. Highlights already long enough, or that
// overlap no segment, come back unchanged with no quote fields.
//
// Starting from the contiguous range of overlapping segments, each round adds
// the previous segment, stops if the span is long enough, then adds the next
// one. Growth ends when the duration is reached or both transcript ends are
// hit. The result always contains the original span.
func Expand(h AlignedHighlight, segments []transcript.Segment, minDuration float64) ExpandedHighlight {
	if h.Duration() >= minDuration {
		return ExpandedHighlight{AlignedHighlight: h}
	}

	first, last := -1, -1
	for i, seg := range segments {
		if seg.End >= h.Start && seg.Start <= h.End {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return ExpandedHighlight{AlignedHighlight: h}
	}

	start := segments[first].Start
	end := segments[last].End
	for end-start < minDuration {
		canBack := first > 0
		canForward := last < len(segments)-1
		if !canBack && !canForward {
			break
		}
		if canBack {
			first--
			start = segments[first].Start
		}
		if end-start >= minDuration {
			break
		}
		if canForward {
			last++
			end = segments[last].End
		}
	}

	words := make([]transcript.Word, 0)
	for _, seg := range segments[first : last+1] {
		words = append(words, seg.Words...)
	}

	quoteStart, quoteEnd := h.Start, h.End
	grown := h
	grown.Start = min(start, h.Start)
	grown.End = max(end, h.End)
	grown.Words = words

	return ExpandedHighlight{
		AlignedHighlight: grown,
		QuoteStart:       &quoteStart,
		QuoteEnd:         &quoteEnd,
		QuoteWords:       nonNilWords(h.Words),
	}
}

// FilterByScore keeps highlights whose match score is at least minScore.
func FilterByScore(highlights []ExpandedHighlight, minScore float64) []ExpandedHighlight {
	out := make([]ExpandedHighlight, 0, len(highlights))
	for _, h := range highlights {
		if h.MatchScore >= minScore {
			out = append(out, h)
		}
	}
	return out
}

func nonNilWords(words []transcript.Word) []transcript.Word {
	if words == nil {
		return []transcript.Word{}
	}
	return words
}
