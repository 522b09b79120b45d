package highlight

import (
	"strings"

	"rexpaces/internal/textutil"
	"rexpaces/internal/transcript"
)

const (
	// DefaultAlignmentBuffer pads the chunk window on both sides when aligning.
	DefaultAlignmentBuffer = 10.0
	// DefaultMinMatchScore is the score a word alignment must exceed.
	DefaultMinMatchScore = 0.5
	// SegmentFallbackScore is assigned when the quote was found in segment text.
	SegmentFallbackScore = 0.7
)

// AlignOptions tunes MapToTimestamps.
type AlignOptions struct {
	Buffer   float64
	MinScore float64
}

// DefaultAlignOptions returns the standard ±10 s buffer and 0.5 threshold.
func DefaultAlignOptions() AlignOptions {
	return AlignOptions{Buffer: DefaultAlignmentBuffer, MinScore: DefaultMinMatchScore}
}

// Align finds the run of consecutive indexed words inside
// [windowStart, windowEnd] that best matches quote. Tokens match when their
// alphanumeric forms are equal or one contains the other; the score is the
// fraction of quote tokens matched. The earliest best window wins and the
// scan stops at a perfect score. ok is false for a blank quote or when the
// window holds fewer words than the quote has tokens.
func Align(quote string, index []IndexedWord, windowStart, windowEnd float64) (Match, bool) {
	tokens := textutil.QuoteTokens(quote)
	if len(tokens) == 0 {
		return Match{}, false
	}

	bounded := make([]IndexedWord, 0, len(index))
	for _, w := range index {
		if w.Start >= windowStart && w.End <= windowEnd {
			bounded = append(bounded, w)
		}
	}
	if len(bounded) < len(tokens) {
		return Match{}, false
	}

	cleanTokens := make([]string, len(tokens))
	for i, tok := range tokens {
		cleanTokens[i] = textutil.StripNonAlnum(tok)
	}
	cleanWords := make([]string, len(bounded))
	for i, w := range bounded {
		cleanWords[i] = textutil.StripNonAlnum(w.Word)
	}

	bestPos := -1
	bestScore := 0.0
	for i := 0; i+len(tokens) <= len(bounded); i++ {
		matched := 0
		for j, tok := range cleanTokens {
			if textutil.TokensMatch(cleanWords[i+j], tok) {
				matched++
			}
		}
		score := float64(matched) / float64(len(tokens))
		if bestPos < 0 || score > bestScore {
			bestPos = i
			bestScore = score
		}
		if score == 1 {
			break
		}
	}

	window := bounded[bestPos : bestPos+len(tokens)]
	words := make([]transcript.Word, len(window))
	for i, w := range window {
		words[i] = w.Timed()
	}
	return Match{
		Start: window[0].Start,
		End:   window[len(window)-1].End,
		Words: words,
		Score: bestScore,
	}, true
}

// MapToTimestamps aligns every raw highlight against the transcript. Word
// alignment runs over the chunk window padded by opts.Buffer and is accepted
// when its score exceeds opts.MinScore. Otherwise the first segment lying
// fully inside the chunk window whose text contains the non-blank quote supplies the
// span and words with SegmentFallbackScore. Failing both, the highlight keeps
// the chunk window with no words and a zero score.
func MapToTimestamps(raws []RawHighlight, segments []transcript.Segment, opts AlignOptions) []AlignedHighlight {
	if len(raws) == 0 {
		return []AlignedHighlight{}
	}
	index := BuildWordIndex(segments)
	out := make([]AlignedHighlight, 0, len(raws))
	for _, raw := range raws {
		out = append(out, locate(raw, index, segments, opts))
	}
	return out
}

func locate(raw RawHighlight, index []IndexedWord, segments []transcript.Segment, opts AlignOptions) AlignedHighlight {
	if match, ok := Align(raw.Quote, index, raw.ChunkStartTime-opts.Buffer, raw.ChunkEndTime+opts.Buffer); ok && match.Score > opts.MinScore {
		return AlignedHighlight{
			RawHighlight: raw,
			Start:        match.Start,
			End:          match.End,
			Words:        match.Words,
			MatchScore:   match.Score,
		}
	}

	if needle := strings.TrimSpace(textutil.Lower(raw.Quote)); needle != "" {
		if aligned, ok := segmentMatch(raw, needle, segments); ok {
			return aligned
		}
	}

	return AlignedHighlight{
		RawHighlight: raw,
		Start:        raw.ChunkStartTime,
		End:          raw.ChunkEndTime,
		Words:        []transcript.Word{},
		MatchScore:   0,
	}
}

// segmentMatch finds the first segment inside the chunk window whose
// lower-cased text contains needle.
func segmentMatch(raw RawHighlight, needle string, segments []transcript.Segment) (AlignedHighlight, bool) {
	for _, seg := range segments {
		if seg.Start < raw.ChunkStartTime || seg.End > raw.ChunkEndTime {
			continue
		}
		if !strings.Contains(textutil.Lower(seg.Text), needle) {
			continue
		}
		aligned := AlignedHighlight{
			RawHighlight: raw,
			Start:        seg.Start,
			End:          seg.End,
			Words:        append([]transcript.Word{}, seg.Words...),
			MatchScore:   SegmentFallbackScore,
		}
		if n := len(seg.Words); n > 0 {
			aligned.Start = seg.Words[0].Start
			aligned.End = seg.Words[n-1].End
		}
		return aligned, true
	}
	return AlignedHighlight{}, false
}
