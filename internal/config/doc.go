// Package config loads, normalizes, and validates rexpaces configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AI_PROVIDER, GEMINI_API_KEY and OLLAMA_API_URL. The Config type centralizes
// every knob the analysis pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a known provider name, and clear validation errors.
package config
