package preflight

import (
	"context"
	"fmt"
	"strings"

	"rexpaces/internal/config"
	"rexpaces/internal/generation"
	"rexpaces/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the preflight checks for the given config. The backend
// health check runs only when backend is non-nil and supports it.
func RunAll(ctx context.Context, cfg *config.Config, backend generation.Generator) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output directory (always checked)
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Paths.InboxDir != "" {
		results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	}

	configured := CheckBackendConfigured(cfg)
	results = append(results, configured)

	if configured.Passed && backend != nil {
		if checker, ok := backend.(generation.HealthChecker); ok {
			results = append(results, CheckBackend(ctx, generation.BackendName(backend), checker))
		}
	}

	return results
}

// Err folds failed results into a single configuration error, or nil when
// every check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), nil)
}
