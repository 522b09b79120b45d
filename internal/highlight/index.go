package highlight

import (
	"rexpaces/internal/textutil"
	"rexpaces/internal/transcript"
)

// BuildWordIndex flattens every segment's words into one slice in input
// order. Tokens are lower-cased and trimmed; timestamps are kept as given.
func BuildWordIndex(segments []transcript.Segment) []IndexedWord {
	total := 0
	for _, seg := range segments {
		total += len(seg.Words)
	}
	index := make([]IndexedWord, 0, total)
	for segIdx, seg := range segments {
		for _, w := range seg.Words {
			index = append(index, IndexedWord{
				Word:         textutil.NormalizeWord(w.Word),
				Start:        w.Start,
				End:          w.End,
				SegmentIndex: segIdx,
			})
		}
	}
	return index
}
