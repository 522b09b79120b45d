package generation

import "context"

// Generator turns a prompt into model text. Backends and the Queue implement it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is implemented by backends that can verify connectivity and
// credentials before a run.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Named is implemented by backends that can describe themselves in logs.
type Named interface {
	Name() string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// BackendName returns g's Name when it has one.
func BackendName(g Generator) string {
	if n, ok := g.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
