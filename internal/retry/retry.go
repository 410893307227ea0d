package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 120 * time.Second
	DefaultFactor       = 2
)

// ErrCancelled is returned by Call.Wait after Call.Cancel.
var ErrCancelled = errors.New("retry: cancelled")

// AttemptsError reports that a call failed on every permitted attempt.
type AttemptsError struct {
	Attempts int
	Err      error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error {
	return e.Err
}

type Logger interface {
	Printf(format string, args ...any)
}

// Policy controls how a call is retried. The zero value retries every error
// forever starting at DefaultInitialDelay.
type Policy struct {
	Name string
	// MaxAttempts of 0 means unlimited.
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       int
	MaxDelay     time.Duration
	// Retryable reports whether err deserves another attempt. Nil retries everything.
	Retryable func(err error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
	Logger    Logger
}

func (p Policy) withDefaults() Policy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.Factor <= 1 {
		p.Factor = DefaultFactor
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Sleep == nil {
		p.Sleep = waitWithContext
	}
	if p.Name == "" {
		p.Name = "request"
	}
	return p
}

func (p Policy) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

// Backoff yields a geometric sequence of delays capped at a maximum.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	factor  int
	current time.Duration
}

func NewBackoff(initial, maxDelay time.Duration, factor int) *Backoff {
	p := Policy{InitialDelay: initial, MaxDelay: maxDelay, Factor: factor}.withDefaults()
	return &Backoff{
		initial: p.InitialDelay,
		max:     p.MaxDelay,
		factor:  p.Factor,
		current: p.InitialDelay,
	}
}

// Next returns the current delay and advances the sequence.
func (b *Backoff) Next() time.Duration {
	d := b.current
	next := b.current * time.Duration(b.factor)
	if next > b.max || next < b.current {
		next = b.max
	}
	b.current = next
	return d
}

func (b *Backoff) Reset() {
	b.current = b.initial
}

// Call is a single in-flight retried operation.
type Call[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	settled bool
	value   T
	err     error
}

// Start runs fn until it succeeds, the policy gives up, or the call is cancelled.
func Start[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) *Call[T] {
	ctx, cancel := context.WithCancel(ctx)
	c := &Call[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx, p.withDefaults(), fn)
	return c
}

// Do is Start followed by Wait.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	return Start(ctx, p, fn).Wait(ctx)
}

func (c *Call[T]) run(ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) {
	defer c.cancel()
	var zero T
	backoff := NewBackoff(p.InitialDelay, p.MaxDelay, p.Factor)
	for attempt := 1; ; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			c.settle(value, nil)
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.settle(zero, fmt.Errorf("%s: %w", p.Name, ctxErr))
			return
		}
		if p.Retryable != nil && !p.Retryable(err) {
			c.settle(zero, err)
			return
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			p.logf("%s failed after %d attempts: %v", p.Name, attempt, err)
			c.settle(zero, &AttemptsError{Attempts: attempt, Err: err})
			return
		}
		delay := backoff.Next()
		p.logf("%s failed (attempt %d): %v; retrying in %s", p.Name, attempt, err, delay)
		if err := p.Sleep(ctx, delay); err != nil {
			c.settle(zero, fmt.Errorf("%s: %w", p.Name, err))
			return
		}
	}
}

func (c *Call[T]) settle(value T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return false
	}
	c.settled = true
	c.value = value
	c.err = err
	close(c.done)
	return true
}

// Cancel stops further attempts and aborts the in-flight one. Calling it
// more than once, or after the call settled, has no effect on the result.
func (c *Call[T]) Cancel() {
	var zero T
	c.settle(zero, ErrCancelled)
	c.cancel()
}

func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles or ctx is done. Returning early on ctx
// does not cancel the call.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		select {
		case <-c.done:
		default:
			var zero T
			return zero, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.err
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
