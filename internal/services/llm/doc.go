// Package llm provides the OpenRouter chat completion backend.
//
// Generate sends one user message and returns the reply text. HTTP 408/5xx
// responses, empty replies and network timeouts are retried with exponential
// backoff (3 attempts, 1s base, 10s cap by default). HTTP 429 is returned
// immediately with a "retry in Ns" hint taken from Retry-After so the
// generation queue applies its rate-limit policy.
package llm
