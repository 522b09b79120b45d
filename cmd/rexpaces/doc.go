// Package main hosts the rexpaces CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration once, builds the selected
// generation backend behind a single generation queue, and hands transcripts
// to the analysis orchestrator. "run" analyzes one transcript, "watch" feeds
// an inbox directory through the same path, "show" lists saved highlights and
// "status" reports preflight checks.
//
// Keep this package lean: new behavior belongs in the internal packages first
// and is only surfaced here through commands or flags.
package main
