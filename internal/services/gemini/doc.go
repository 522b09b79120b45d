// Package gemini wraps the Google Gen AI SDK as a text generation backend.
//
// Quota errors are normalized to carry a "retry in Ns" hint so the shared
// generation queue treats them as rate limits.
package gemini
