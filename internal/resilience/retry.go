// Package resilience provides backoff retry and circuit breaking for calls to
// external services.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Outcome classifies a single call attempt.
type Outcome int

const (
	// OutcomeOK means the call succeeded.
	OutcomeOK Outcome = iota
	// OutcomeTransient means the call failed and may be retried.
	OutcomeTransient
	// OutcomePermanent means the call failed and retrying will not help
	// (quota exhausted, bad request).
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Attempt is the classified result of one call.
type Attempt[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// Succeeded wraps a successful value.
func Succeeded[T any](v T) Attempt[T] {
	return Attempt[T]{Value: v, Outcome: OutcomeOK}
}

// Retryable wraps an error that the loop should retry.
func Retryable[T any](err error) Attempt[T] {
	return Attempt[T]{Outcome: OutcomeTransient, Err: err}
}

// Fatal wraps an error that ends the loop immediately.
func Fatal[T any](err error) Attempt[T] {
	return Attempt[T]{Outcome: OutcomePermanent, Err: err}
}

// Policy controls retry behavior with exponential backoff and additive jitter.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps every delay, jitter included. Default: 60s.
	MaxDelay time.Duration

	// Multiplier scales the delay after each retry. Default: 2.0.
	Multiplier float64

	// MaxJitter bounds the uniform random delay added to every wait.
	MaxJitter time.Duration

	// Jitter returns a value in [0, 1). Defaults to math/rand.
	Jitter func() float64

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each retry sleep.
	OnRetry func(retry int, delay time.Duration, err error)
}

// GatewayPolicy is the backoff used for LLM calls: 1s doubling to a 60s cap,
// up to 1s of jitter, five retries.
func GatewayPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.0,
		MaxJitter:  time.Second,
	}
}

// ScrapePolicy is the backoff used for listing page fetches: 1s, 2s, 4s.
func ScrapePolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// FromMillis builds a Policy from config values, keeping defaults for zeros.
func FromMillis(maxRetries, baseMs, maxMs, jitterMs int) Policy {
	p := GatewayPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if baseMs > 0 {
		p.BaseDelay = time.Duration(baseMs) * time.Millisecond
	}
	if maxMs > 0 {
		p.MaxDelay = time.Duration(maxMs) * time.Millisecond
	}
	if jitterMs >= 0 {
		p.MaxJitter = time.Duration(jitterMs) * time.Millisecond
	}
	return p
}

// Delay returns the wait before the given retry (1-based):
// min(MaxDelay, BaseDelay*Multiplier^(retry-1) + jitter).
func (p Policy) Delay(retry int) time.Duration {
	p = p.withDefaults()
	if retry < 1 {
		retry = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retry-1))
	if p.MaxJitter > 0 {
		d += p.Jitter() * float64(p.MaxJitter)
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.Jitter == nil {
		p.Jitter = rand.Float64
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	return p
}

// Run calls fn until it succeeds, returns a permanent outcome, or the retry
// budget is spent. It returns the final attempt and the number of calls made.
// Context cancellation during a wait returns the last attempt immediately.
func Run[T any](ctx context.Context, p Policy, fn func(ctx context.Context) Attempt[T]) (Attempt[T], int) {
	p = p.withDefaults()

	var last Attempt[T]
	calls := 0
	for retry := 0; retry <= p.MaxRetries; retry++ {
		if retry > 0 {
			delay := p.Delay(retry)
			if p.OnRetry != nil {
				p.OnRetry(retry, delay, last.Err)
			}
			if err := p.Sleep(ctx, delay); err != nil {
				return last, calls
			}
		}

		last = fn(ctx)
		calls++

		if last.Outcome != OutcomeTransient {
			return last, calls
		}
		if ctx.Err() != nil {
			return last, calls
		}
	}
	return last, calls
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(service, operation string) func(int, time.Duration, error) {
	return func(retry int, delay time.Duration, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("retry", retry),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
}
