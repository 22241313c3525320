package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bnema/cyclerun/internal/ports"
	backoff "github.com/cenkalti/backoff/v4"
)

// Jitter is the random source used to pick delays. *rand.Rand satisfies it.
type Jitter interface {
	Int64N(n int64) int64
}

type globalJitter struct{}

func (globalJitter) Int64N(n int64) int64 {
	return rand.Int64N(n)
}

type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

func (r DelayRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("minimum delay must not be negative, got %s", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("maximum delay %s is below minimum %s", r.Max, r.Min)
	}

	return nil
}

// Pick returns a uniformly random duration in [Min, Max].
func (r DelayRange) Pick(jitter Jitter) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	if jitter == nil {
		jitter = globalJitter{}
	}

	return r.Min + time.Duration(jitter.Int64N(int64(r.Max-r.Min)+1))
}

func (r DelayRange) String() string {
	return fmt.Sprintf("%s-%s", r.Min, r.Max)
}

type RetryPolicy struct {
	MaxAttempts    int
	Delay          DelayRange
	CoolOff        DelayRange
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          DelayRange{Min: 10 * time.Second, Max: 15 * time.Second},
		CoolOff:        DelayRange{Min: time.Hour, Max: time.Hour + time.Minute},
		AttemptTimeout: 3 * time.Minute,
	}
}

func (p RetryPolicy) Validate() error {
	var errs []error
	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts))
	}
	if err := p.Delay.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("retry delay: %w", err))
	}
	if err := p.CoolOff.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cool-off: %w", err))
	}
	if p.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("attempt timeout must be positive, got %s", p.AttemptTimeout))
	}

	return errors.Join(errs...)
}

// delayBackOff hands out a fresh random pick from r for every retry.
type delayBackOff struct {
	r      DelayRange
	jitter Jitter
}

var _ backoff.BackOff = delayBackOff{}

func (b delayBackOff) NextBackOff() time.Duration {
	return b.r.Pick(b.jitter)
}

func (delayBackOff) Reset() {}

// newBackOff allows maxAttempts tries of an operation, waiting a random r
// between them, and stops early when ctx is done.
func newBackOff(ctx context.Context, r DelayRange, jitter Jitter, maxAttempts int) backoff.BackOffContext {
	retries := uint64(0)
	if maxAttempts > 1 {
		retries = uint64(maxAttempts - 1)
	}

	return backoff.WithContext(backoff.WithMaxRetries(delayBackOff{r: r, jitter: jitter}, retries), ctx)
}

// sleeperTimer drives backoff waits through a ports.Sleeper so tests can
// observe them without sleeping.
type sleeperTimer struct {
	ctx     context.Context
	sleeper ports.Sleeper
	c       chan time.Time
	cancel  context.CancelFunc
}

var _ backoff.Timer = (*sleeperTimer)(nil)

func newSleeperTimer(ctx context.Context, sleeper ports.Sleeper) *sleeperTimer {
	return &sleeperTimer{ctx: ctx, sleeper: sleeper}
}

func (t *sleeperTimer) Start(d time.Duration) {
	t.Stop()

	ctx, cancel := context.WithCancel(t.ctx)
	c := make(chan time.Time, 1)
	t.c = c
	t.cancel = cancel

	go func() {
		if err := t.sleeper.Sleep(ctx, d); err == nil {
			c <- time.Now()
		}
	}()
}

func (t *sleeperTimer) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *sleeperTimer) C() <-chan time.Time {
	return t.c
}
