// Package transcript defines the timed transcript model shared by the
// analysis pipeline: words, segments and the transcript document, plus a
// loader for speech-to-text JSON output. Word tokens may arrive under either a
// "word" or a "text" key.
package transcript
