// Package highlight pins model-picked quotes to transcript time and grows
// them into clips.
//
// BuildWordIndex flattens segment words for fuzzy matching, Align finds the
// best run of words for a quote, MapToTimestamps applies the acceptance and
// fallback policy, and Expand widens short highlights to whole segments until
// they reach the minimum clip length. Every stage returns new records; inputs
// are never modified. Nothing here returns an error: low-confidence results
// are expressed through MatchScore.
package highlight
