// Package generation owns access to the text generation backend.
//
// Queue serializes every request so at most one call is in flight, in FIFO
// order across concurrent callers. Errors carrying a "retry in Ns" hint are
// treated as rate limits: the request is retried after the hinted wait plus
// one penalty per previous retry (60 s by default), blocking the whole queue
// meanwhile. Any other backend error fails the request with
// services.ErrGeneration. NewBackend selects Ollama, Gemini or OpenRouter
// from configuration.
package generation
