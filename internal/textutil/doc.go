// Package textutil provides the text normalization used by quote alignment
// and the small formatting helpers shared by the CLI.
//
// The primary use cases are:
//   - Lower-casing and trimming transcript tokens with Unicode case mapping
//   - Splitting quotes into tokens and stripping punctuation for fuzzy comparison
//   - Rendering M:SS clock labels for prompts and tables
//   - Sanitizing filenames for per-transcript artifact directories
package textutil
