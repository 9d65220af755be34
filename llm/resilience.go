package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// rateWindow is the sliding window over which requests are counted.
const rateWindow = time.Minute

// RateLimiter bounds outbound request rate to a fixed number of requests
// per sliding one-minute window. At capacity the caller blocks until the
// oldest timestamp leaves the window; requests are delayed, never dropped.
//
// State is process-local and unsynchronized: the execution model is
// single-threaded and strictly sequential.
type RateLimiter struct {
	limit  int
	times  []time.Time
	logger zerolog.Logger

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a rate limiter admitting requestsPerMinute
// requests per trailing minute. A non-positive limit disables limiting.
func NewRateLimiter(requestsPerMinute int, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:  requestsPerMinute,
		logger: logger.With().Str("component", "rateLimiter").Logger(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait blocks until the limiter admits one more request, then records it.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l.limit <= 0 {
		return nil
	}

	now := l.now()
	l.prune(now)

	for len(l.times) >= l.limit {
		wait := rateWindow - now.Sub(l.times[0])
		if wait > 0 {
			l.logger.Debug().Dur("wait", wait).Int("limit", l.limit).Msg("Rate limited, sleeping")
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		now = l.now()
		l.prune(now)
	}

	l.times = append(l.times, now)
	return nil
}

// prune drops timestamps that have left the sliding window.
func (l *RateLimiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.times) && now.Sub(l.times[cut]) >= rateWindow {
		cut++
	}
	l.times = l.times[cut:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ResilienceOptions configures the ResilientClient.
type ResilienceOptions struct {
	// RequestsPerMinute bounds the request rate; <= 0 disables limiting.
	RequestsPerMinute int
	// RetryAttempts is the total number of attempts, including the first.
	RetryAttempts int
	// RetryDelay is the backoff delay before the first retry; subsequent
	// delays double (RetryDelay * 2^attempt, no jitter).
	RetryDelay time.Duration
}

// ResilientClient wraps a Completer with a sliding-window rate limiter and
// retry with exponential backoff. It never alters the logical content of a
// request; every backend call made through it is both rate-limited and
// individually retried.
type ResilientClient struct {
	inner    Completer
	limiter  *RateLimiter
	attempts int
	delay    time.Duration
	logger   zerolog.Logger

	timer backoff.Timer // overridable in tests; nil uses real timers
}

// NewResilientClient wraps inner with the given resilience policies.
func NewResilientClient(inner Completer, opts ResilienceOptions, logger zerolog.Logger) *ResilientClient {
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &ResilientClient{
		inner:    inner,
		limiter:  NewRateLimiter(opts.RequestsPerMinute, logger),
		attempts: attempts,
		delay:    delay,
		logger:   logger.With().Str("component", "resilientClient").Logger(),
	}
}

// Complete implements Completer. Configuration errors are permanent and
// surface immediately; any other failure is retried until the attempt
// budget is exhausted, after which the last error is returned.
func (r *ResilientClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	attempt := 0

	operation := func() error {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		resp, err = r.inner.Complete(ctx, req)
		if err != nil {
			if IsConfigError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.delay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = 24 * time.Hour
	eb.MaxElapsedTime = 0
	eb.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.attempts-1)), ctx)

	notify := func(err error, next time.Duration) {
		r.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", r.attempts).
			Dur("next_delay", next).
			Err(err).
			Msg("Completion attempt failed, retrying")
	}

	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, r.timer); err != nil {
		return nil, err
	}
	return resp, nil
}

var _ Completer = (*ResilientClient)(nil)
