// Package preflight provides readiness checks for the filesystem paths and
// generation backend that rexpaces depends on.
//
// These checks run in two contexts:
//   - "rexpaces run" and "rexpaces watch" call RunAll before analysis so a
//     missing API key or unwritable output directory fails fast.
//   - "rexpaces status" renders every result as a table.
//
// The backend health check is skipped when the backend is not configured.
package preflight
