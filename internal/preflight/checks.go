package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"rexpaces/internal/config"
	"rexpaces/internal/generation"
)

const backendCheckTimeout = 30 * time.Second

// CheckBackend verifies that the generation backend is reachable. It uses a
// 30-second timeout and a single attempt.
func CheckBackend(ctx context.Context, name string, checker generation.HealthChecker) Result {
	if checker == nil {
		return Result{Name: name, Passed: true, Detail: "no health check available"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()

	if err := checker.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBackendError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckBackendConfigured verifies the selected provider has the settings it
// needs without contacting it.
func CheckBackendConfigured(cfg *config.Config) Result {
	const name = "Generation backend"
	if err := cfg.ValidateBackend(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s configured", cfg.Generation.Provider)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeBackendError produces a human-readable summary for health check failures.
func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (backend unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (backend unreachable)"
	}
	return err.Error()
}
