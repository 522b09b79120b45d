// Package analysis drives highlight extraction for a transcript.
//
// A run groups segments into fixed-duration chunks, summarizes each chunk,
// derives a conversation context from the summaries, then asks the model for
// quotable moments per chunk with that context in hand. Pass-one output is
// saved so a rerun over the same output directory skips straight to
// detection. Detected quotes are aligned to word timestamps and grown to whole
// segments before highlights.json is written.
//
// All model calls go through a single generation.Generator, normally a
// generation.Queue, so at most one request is in flight.
package analysis
