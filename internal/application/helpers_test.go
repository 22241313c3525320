package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/stretchr/testify/mock"
)

func mockAnyContext() interface{} {
	return mock.Anything
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// minJitter always picks the lower bound of a DelayRange.
type minJitter struct{}

func (minJitter) Int64N(int64) int64 { return 0 }

// recordingSleeper returns immediately and remembers every requested wait.
type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return nil
}

func (s *recordingSleeper) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []error
	results  []domain.JobResult
	cycles   []CycleReport
}

func (o *recordingObserver) ObserveAttempt(_ domain.AccountID, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, err)
}

func (o *recordingObserver) ObserveResult(result domain.JobResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) ObserveCycle(report CycleReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles = append(o.cycles, report)
}

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          DelayRange{Min: 10 * time.Second, Max: 15 * time.Second},
		CoolOff:        DelayRange{Min: time.Hour, Max: time.Hour + time.Minute},
		AttemptTimeout: time.Second,
	}
}

func testExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Cooldown:                24 * time.Hour,
		Retry:                   testRetryPolicy(),
		CheckpointWriteAttempts: 3,
		CheckpointWriteDelay:    2 * time.Second,
	}
}
