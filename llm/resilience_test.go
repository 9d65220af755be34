package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeTimer fires immediately and records every requested delay.
type fakeTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (t *fakeTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c <- time.Time{}
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

// flakyCompleter fails the first `failures` calls, then succeeds.
type flakyCompleter struct {
	failures int
	calls    int
	err      error
	resp     *Response
}

func (c *flakyCompleter) Complete(_ context.Context, _ *Request) (*Response, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, c.err
	}
	return c.resp, nil
}

func TestRateLimiter_DelaysAtCapacity(t *testing.T) {
	limiter := NewRateLimiter(3, zerolog.Nop())

	clock := time.Now()
	var slept []time.Duration
	limiter.now = func() time.Time { return clock }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	if len(slept) != 0 {
		t.Fatalf("Expected no sleeps under the limit, got %v", slept)
	}

	// Fourth request in the same instant must wait out the full window.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("Wait at capacity failed: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Minute {
		t.Errorf("Expected a single 60s sleep, got %v", slept)
	}
}

func TestRateLimiter_WaitsUntilOldestExpires(t *testing.T) {
	limiter := NewRateLimiter(2, zerolog.Nop())

	clock := time.Now()
	var slept []time.Duration
	limiter.now = func() time.Time { return clock }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}

	ctx := context.Background()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(40 * time.Second)
	if err := limiter.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	// The oldest timestamp leaves the window in 20s.
	if err := limiter.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if len(slept) != 1 || slept[0] != 20*time.Second {
		t.Errorf("Expected a single 20s sleep, got %v", slept)
	}
}

func TestRateLimiter_DisabledWhenNonPositive(t *testing.T) {
	limiter := NewRateLimiter(0, zerolog.Nop())
	limiter.sleep = func(_ context.Context, _ time.Duration) error {
		t.Fatal("Disabled limiter must never sleep")
		return nil
	}
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(1, zerolog.Nop())

	clock := time.Now()
	limiter.now = func() time.Time { return clock }
	limiter.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := limiter.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestResilientClient_RetriesThenSucceeds(t *testing.T) {
	inner := &flakyCompleter{
		failures: 2,
		err:      NewProviderError("transient upstream error", nil),
		resp:     &Response{Content: "eventual reply"},
	}
	timer := newFakeTimer()
	client := NewResilientClient(inner, ResilienceOptions{
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}, zerolog.Nop())
	client.timer = timer

	resp, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "eventual reply" {
		t.Errorf("Expected 'eventual reply', got %q", resp.Content)
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", inner.calls)
	}

	// Delays double: 1s before the first retry, 2s before the second.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, timer.delays)
	}
	for i := range want {
		if timer.delays[i] != want[i] {
			t.Errorf("Delay %d: expected %v, got %v", i, want[i], timer.delays[i])
		}
	}
}

func TestResilientClient_ExhaustsAttempts(t *testing.T) {
	innerErr := NewProviderError("persistent upstream error", nil)
	inner := &flakyCompleter{failures: 100, err: innerErr}
	client := NewResilientClient(inner, ResilienceOptions{
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}, zerolog.Nop())
	client.timer = newFakeTimer()

	_, err := client.Complete(context.Background(), testRequest())
	if !errors.Is(err, innerErr) {
		t.Errorf("Expected the last inner error, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", inner.calls)
	}
}

func TestResilientClient_ConfigErrorNotRetried(t *testing.T) {
	inner := &flakyCompleter{failures: 100, err: NewConfigError("missing API key", nil)}
	timer := newFakeTimer()
	client := NewResilientClient(inner, ResilienceOptions{
		RetryAttempts: 5,
		RetryDelay:    time.Second,
	}, zerolog.Nop())
	client.timer = timer

	_, err := client.Complete(context.Background(), testRequest())
	if !IsConfigError(err) {
		t.Fatalf("Expected config error, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("Expected a single attempt for a config error, got %d", inner.calls)
	}
	if len(timer.delays) != 0 {
		t.Errorf("Expected no backoff delays, got %v", timer.delays)
	}
}

func TestResilientClient_SingleAttemptNoRetry(t *testing.T) {
	innerErr := NewProviderError("upstream error", nil)
	inner := &flakyCompleter{failures: 100, err: innerErr}
	client := NewResilientClient(inner, ResilienceOptions{
		RetryAttempts: 1,
		RetryDelay:    time.Second,
	}, zerolog.Nop())
	client.timer = newFakeTimer()

	if _, err := client.Complete(context.Background(), testRequest()); !errors.Is(err, innerErr) {
		t.Errorf("Expected inner error, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", inner.calls)
	}
}

func TestResilientClient_DelaySequenceDoubles(t *testing.T) {
	inner := &flakyCompleter{
		failures: 3,
		err:      NewProviderError("flaky", nil),
		resp:     &Response{Content: "done"},
	}
	timer := newFakeTimer()
	client := NewResilientClient(inner, ResilienceOptions{
		RetryAttempts: 4,
		RetryDelay:    500 * time.Millisecond,
	}, zerolog.Nop())
	client.timer = timer

	if _, err := client.Complete(context.Background(), testRequest()); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, timer.delays)
	}
	for i := range want {
		if timer.delays[i] != want[i] {
			t.Errorf("Delay %d: expected %v, got %v", i, want[i], timer.delays[i])
		}
	}
}
