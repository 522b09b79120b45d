// Package ollama is a minimal client for a local Ollama server's
// non-streaming /api/generate endpoint, used as the default text generation
// backend.
package ollama
