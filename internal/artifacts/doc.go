// Package artifacts persists the intermediate and final JSON files of an
// analysis run: chunk summaries, the conversation context and highlights.
// Files are written atomically through a temp file and rename, and a run
// holds an advisory file lock on its directory so two runs never interleave
// writes.
package artifacts
