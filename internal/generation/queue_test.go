package generation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rexpaces/internal/config"
	"rexpaces/internal/generation"
	"rexpaces/internal/services"
)

func TestRateLimitWait(t *testing.T) {
	tests := []struct {
		msg  string
		want time.Duration
		ok   bool
	}{
		{"Please retry in 12.5s", 12500 * time.Millisecond, true},
		{"RETRY IN 3S", 3 * time.Second, true},
		{"quota exceeded, retry in 58.384186637s.", 58385 * time.Millisecond, true},
		{"retry in 0.0001s", time.Millisecond, true},
		{"retry later", 0, false},
		{"retry in s", 0, false},
	}
	for _, tt := range tests {
		got, ok := generation.RateLimitWait(errors.New(tt.msg))
		if ok != tt.ok || got != tt.want {
			t.Errorf("RateLimitWait(%q) = %v, %v; want %v, %v", tt.msg, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := generation.RateLimitWait(nil); ok {
		t.Error("nil error must not be a rate limit")
	}
	fatal := services.Wrap(services.ErrGeneration, "gemini", "generate", "", errors.New("Error 400, Message: please retry in 5s"))
	if _, ok := generation.RateLimitWait(fatal); ok {
		t.Error("errors marked as generation failures must not be retried")
	}
}

func TestBackoffFor(t *testing.T) {
	if got := generation.BackoffFor(13*time.Second, 0, time.Minute); got != 13*time.Second {
		t.Fatalf("first retry = %v", got)
	}
	if got := generation.BackoffFor(13*time.Second, 2, time.Minute); got != 133*time.Second {
		t.Fatalf("third retry = %v", got)
	}
}

func TestQueueRetriesRateLimitWithGrowingPenalty(t *testing.T) {
	var slept []time.Duration
	q := generation.NewQueue(nil, generation.WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	defer q.Close()

	var calls int
	out, err := q.Submit(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("429: Please retry in 12.5s")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if out != "done" || calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", out, calls)
	}
	want := []time.Duration{12500 * time.Millisecond, 72500 * time.Millisecond}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Fatalf("unexpected waits %v, want %v", slept, want)
	}
}

func TestQueueNonRateLimitErrorFailsImmediately(t *testing.T) {
	q := generation.NewQueue(nil, generation.WithSleeper(func(time.Duration) { t.Error("unexpected sleep") }))
	defer q.Close()

	boom := errors.New("connection refused")
	var calls int
	_, err := q.Submit(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, services.ErrGeneration) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrGeneration wrapping cause, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestQueueRetryCap(t *testing.T) {
	q := generation.NewQueue(nil,
		generation.WithMaxRetries(2),
		generation.WithSleeper(func(time.Duration) {}),
	)
	defer q.Close()

	var calls int
	_, err := q.Submit(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("retry in 1s")
	})
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d calls", calls)
	}
}

func TestQueueSerializesAndKeepsOrder(t *testing.T) {
	q := generation.NewQueue(nil)
	defer q.Close()

	var inFlight, maxInFlight int32
	var mu sync.Mutex
	var order []int

	// Hold the worker on a first request so the rest queue up in a known order.
	release := make(chan struct{})
	started := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = q.Submit(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "", nil
		})
	}()
	<-started

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), func(context.Context) (string, error) {
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					prev := atomic.LoadInt32(&maxInFlight)
					if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
						break
					}
				}
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return fmt.Sprint(i), nil
			})
		}()
		// Wait until request i is queued before submitting the next one.
		for q.Pending() < i+1 {
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	<-firstDone
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("expected at most one request in flight, saw %d", maxInFlight)
	}
	for i := range order {
		if order[i] != i {
			t.Fatalf("requests ran out of order: %v", order)
		}
	}
}

func TestQueueFailureDoesNotPoisonLaterRequests(t *testing.T) {
	q := generation.NewQueue(nil)
	defer q.Close()

	if _, err := q.Submit(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("bad gateway")
	}); err == nil {
		t.Fatal("expected first request to fail")
	}
	out, err := q.Submit(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	if err != nil || out != "ok" {
		t.Fatalf("expected later request to succeed, got %q, %v", out, err)
	}
}

func TestQueueGenerateUsesBackend(t *testing.T) {
	backend := generation.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	q := generation.NewQueue(backend)
	defer q.Close()

	out, err := q.Generate(context.Background(), "hi")
	if err != nil || out != "echo:hi" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
}

func TestQueueContextCancellationDuringBackoff(t *testing.T) {
	q := generation.NewQueue(nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := q.Submit(ctx, func(context.Context) (string, error) {
		return "", errors.New("retry in 3600s")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestQueueClosedRejectsSubmit(t *testing.T) {
	q := generation.NewQueue(nil)
	q.Close()
	q.Close()
	if _, err := q.Submit(context.Background(), func(context.Context) (string, error) { return "", nil }); !errors.Is(err, generation.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestQueueCloseFailsQueuedRequests(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	backend := generation.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
		return prompt, nil
	})
	q := generation.NewQueue(backend)

	first := make(chan error, 1)
	go func() {
		_, err := q.Generate(context.Background(), "first")
		first <- err
	}()
	<-started

	const queued = 3
	results := make(chan error, queued)
	for i := range queued {
		go func() {
			_, err := q.Generate(context.Background(), fmt.Sprint("queued-", i))
			results <- err
		}()
	}
	for q.Pending() < queued {
		time.Sleep(time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		q.Close()
		close(closed)
	}()
	// A request with an expired context is rejected once Close has started.
	expired, cancel := context.WithCancel(context.Background())
	cancel()
	for {
		_, err := q.Submit(expired, func(context.Context) (string, error) { return "", nil })
		if errors.Is(err, generation.ErrQueueClosed) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-closed

	if err := <-first; err != nil {
		t.Fatalf("in-flight request should finish, got %v", err)
	}
	for range queued {
		if err := <-results; !errors.Is(err, generation.ErrQueueClosed) {
			t.Fatalf("expected ErrQueueClosed for queued request, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("backend saw %d calls, want 1", got)
	}
}

func TestNewBackendSelectsProvider(t *testing.T) {
	cfg := config.Default()

	cfg.Generation.Provider = config.ProviderOllama
	backend, err := generation.NewBackend(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("ollama backend: %v", err)
	}
	if name := generation.BackendName(backend); name != "ollama:gemma3:12b" {
		t.Fatalf("unexpected backend %q", name)
	}

	cfg.Generation.Provider = config.ProviderOpenRouter
	backend, err = generation.NewBackend(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("openrouter backend: %v", err)
	}
	if _, ok := backend.(generation.HealthChecker); !ok {
		t.Fatal("openrouter backend should support health checks")
	}

	cfg.Generation.Provider = config.ProviderGemini
	cfg.Gemini.APIKey = ""
	if _, err := generation.NewBackend(context.Background(), &cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without gemini key, got %v", err)
	}

	cfg.Generation.Provider = "bogus"
	if _, err := generation.NewBackend(context.Background(), &cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
