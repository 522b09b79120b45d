package chunking

import (
	"math"
	"strings"

	"rexpaces/internal/transcript"
)

// Chunk is a fixed-duration slice of the conversation holding every segment
// whose start falls inside [StartTime, EndTime).
type Chunk struct {
	Index     int                  `json:"index"`
	StartTime float64              `json:"startTime"`
	EndTime   float64              `json:"endTime"`
	Text      string               `json:"text"`
	Segments  []transcript.Segment `json:"segments"`
}

// Group assigns each segment to chunk floor(start/chunkDuration). Segments are
// never split. Chunks come back in order of the first appearance of their
// index, so sorted input yields ascending indexes. Returns nil when
// chunkDuration is not positive.
func Group(segments []transcript.Segment, chunkDuration float64) []Chunk {
	if chunkDuration <= 0 || len(segments) == 0 {
		return nil
	}

	var chunks []Chunk
	var texts [][]string
	position := make(map[int]int)

	for _, seg := range segments {
		index := int(math.Floor(seg.Start / chunkDuration))
		pos, ok := position[index]
		if !ok {
			start := float64(index) * chunkDuration
			chunks = append(chunks, Chunk{
				Index:     index,
				StartTime: start,
				EndTime:   start + chunkDuration,
			})
			texts = append(texts, nil)
			pos = len(chunks) - 1
			position[index] = pos
		}
		chunks[pos].Segments = append(chunks[pos].Segments, seg)
		texts[pos] = append(texts[pos], seg.Text)
	}

	for i := range chunks {
		chunks[i].Text = strings.TrimSpace(strings.Join(texts[i], " "))
	}
	return chunks
}
