// Package services defines shared utilities consumed by the analysis pipeline
// and the generation backends.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, chunk indexes and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     fatal (context parse, generation) or recoverable (per-chunk highlight
//     parse).
//
// Backend clients live in subpackages (llm, gemini, ollama).
package services
