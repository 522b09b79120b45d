package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")

	// ErrGeneration marks a non-retryable failure of the generation backend.
	ErrGeneration = errors.New("generation failure")
	// ErrRateLimited marks a request that exhausted its configured rate-limit retries.
	ErrRateLimited = errors.New("rate limited")
	// ErrContextParse marks an unusable conversation context response. Fatal for a run.
	ErrContextParse = errors.New("context parse error")
	// ErrHighlightParse marks an unusable highlight detection response for one chunk.
	ErrHighlightParse = errors.New("highlight parse error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether a run may continue after err. Only per-chunk
// highlight parse failures qualify.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrHighlightParse)
}

// ExitCode maps a run error to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return 2
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrGeneration), errors.Is(err, ErrContextParse):
		return 3
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
