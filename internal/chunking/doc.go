// Package chunking splits a transcript into fixed-duration chunks for the
// per-chunk analysis passes.
package chunking
