package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rexpaces/internal/logging"
	"rexpaces/internal/services"
)

// DefaultRateLimitPenalty is added per previous retry to the server-suggested wait.
const DefaultRateLimitPenalty = 60 * time.Second

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("generation queue closed")

// RequestFunc performs one generation call.
type RequestFunc func(ctx context.Context) (string, error)

// Queue serializes generation requests: at most one call is in flight and
// requests run in submission order. Rate-limited calls are retried in place,
// so a backoff blocks every request queued behind it.
type Queue struct {
	backend Generator
	logger  *slog.Logger

	maxRetries int
	penalty    time.Duration
	sleeper    func(time.Duration)

	mu      sync.Mutex
	pending []*job
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

type job struct {
	ctx    context.Context
	fn     RequestFunc
	result chan jobResult
}

type jobResult struct {
	text string
	err  error
}

// Option customizes the queue.
type Option func(*Queue)

// WithMaxRetries caps rate-limit retries per request. Zero or less retries forever.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		q.maxRetries = n
	}
}

// WithPenalty overrides the per-retry penalty added to rate-limit waits.
func WithPenalty(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.penalty = d
		}
	}
}

// WithSleeper overrides how backoff waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(q *Queue) {
		q.sleeper = sleeper
	}
}

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// NewQueue starts a queue in front of backend. Callers own the queue and must
// Close it when done.
func NewQueue(backend Generator, opts ...Option) *Queue {
	q := &Queue{
		backend: backend,
		penalty: DefaultRateLimitPenalty,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = logging.NewComponentLogger(q.logger, "generation")
	go q.run()
	return q
}

// Generate submits a call to the wrapped backend.
func (q *Queue) Generate(ctx context.Context, prompt string) (string, error) {
	if q.backend == nil {
		return "", services.Wrap(services.ErrConfiguration, "generation", "generate", "no backend configured", nil)
	}
	return q.Submit(ctx, func(ctx context.Context) (string, error) {
		return q.backend.Generate(ctx, prompt)
	})
}

// Submit enqueues fn and waits for its result. If ctx ends first Submit
// returns ctx.Err() and fn is skipped when its turn comes.
func (q *Queue) Submit(ctx context.Context, fn RequestFunc) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	j := &job{ctx: ctx, fn: fn, result: make(chan jobResult, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.pending = append(q.pending, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case res := <-j.result:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Name reports the wrapped backend.
func (q *Queue) Name() string {
	return BackendName(q.backend)
}

// Pending reports how many requests are waiting behind the one in flight.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops the worker. The request in flight finishes (a rate-limit wait is
// cut short with ErrQueueClosed) and requests still pending fail with
// ErrQueueClosed without reaching the backend.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()
	<-q.stopped
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			q.drain()
			return
		case <-q.wake:
		}
		for {
			select {
			case <-q.done:
				q.drain()
				return
			default:
			}
			j := q.next()
			if j == nil {
				break
			}
			if err := j.ctx.Err(); err != nil {
				j.result <- jobResult{err: err}
				continue
			}
			text, err := q.execute(j)
			j.result <- jobResult{text: text, err: err}
		}
	}
}

func (q *Queue) next() *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return j
}

func (q *Queue) drain() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, j := range pending {
		j.result <- jobResult{err: ErrQueueClosed}
	}
}

func (q *Queue) execute(j *job) (string, error) {
	logger := logging.WithContext(j.ctx, q.logger)
	for retry := 0; ; retry++ {
		text, err := j.fn(j.ctx)
		if err == nil {
			return text, nil
		}
		if ctxErr := j.ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		hint, limited := RateLimitWait(err)
		if !limited {
			return "", services.Wrap(services.ErrGeneration, "generation", "request", "backend call failed", err)
		}
		if q.maxRetries > 0 && retry >= q.maxRetries {
			return "", services.Wrap(services.ErrRateLimited, "generation", "request",
				fmt.Sprintf("gave up after %d rate-limit retries", retry), err)
		}
		wait := BackoffFor(hint, retry, q.penalty)
		logging.WarnWithContext(logger, "rate limit hit; backing off", "rate_limit_backoff",
			logging.Duration("wait", wait),
			logging.Int("retry", retry+1),
			logging.Int("queued_behind", q.Pending()),
			logging.String(logging.FieldErrorHint, "lower request volume or raise the provider quota"),
			logging.String(logging.FieldImpact, "all queued generation requests wait"),
			logging.Error(err),
		)
		if err := q.sleep(j.ctx, wait); err != nil {
			return "", err
		}
	}
}

func (q *Queue) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if q.sleeper != nil {
		q.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	case <-timer.C:
		return nil
	}
}
