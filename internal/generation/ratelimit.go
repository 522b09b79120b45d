package generation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"

	"rexpaces/internal/services"
)

var retryHintPattern = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`)

// RateLimitWait extracts the server-suggested wait from an error message such
// as "Please retry in 58.38s", rounded up to the millisecond. ok is false when
// err carries no such hint or a backend already marked it services.ErrGeneration.
func RateLimitWait(err error) (time.Duration, bool) {
	if err == nil || errors.Is(err, services.ErrGeneration) {
		return 0, false
	}
	match := retryHintPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return 0, false
	}
	seconds, parseErr := strconv.ParseFloat(match[1], 64)
	if parseErr != nil {
		return 0, false
	}
	ms := math.Ceil(seconds * 1000)
	return time.Duration(ms) * time.Millisecond, true
}

// BackoffFor returns the total wait before retry number retryCount (0-based):
// the server hint plus retryCount penalties.
func BackoffFor(hint time.Duration, retryCount int, penalty time.Duration) time.Duration {
	return hint + time.Duration(retryCount)*penalty
}
