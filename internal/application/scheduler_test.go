package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/cyclerun/internal/adapters/checkpoint/memory"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	store     *memory.Store
	sleeper   *recordingSleeper
	observer  *recordingObserver
	scheduler *Scheduler
}

func newSchedulerFixture(action ports.Action, cfg SchedulerConfig) schedulerFixture {
	store := memory.NewStore()
	sleeper := &recordingSleeper{}
	observer := &recordingObserver{}
	clock := fixedClock{now: testNow}

	executor := NewExecutor(store, clock, testExecutorConfig(),
		WithExecutorSleeper(sleeper),
		WithExecutorJitter(minJitter{}),
	)
	scheduler := NewScheduler(executor, action, cfg,
		WithSchedulerClock(clock),
		WithSchedulerSleeper(sleeper),
		WithSchedulerJitter(minJitter{}),
		WithSchedulerObserver(observer),
	)

	return schedulerFixture{store: store, sleeper: sleeper, observer: observer, scheduler: scheduler}
}

func testAccounts(ids ...string) []domain.Account {
	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, domain.Account{ID: domain.AccountID(id), SessionToken: "tok-" + id})
	}
	return accounts
}

func TestSchedulerProcessesAccountsSequentiallyInOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		order   []domain.AccountID
		active  atomic.Int32
		overlap atomic.Bool
	)
	action := ports.ActionFunc(func(_ context.Context, account domain.Account) error {
		if active.Add(1) > 1 {
			overlap.Store(true)
		}
		defer active.Add(-1)

		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, account.ID)
		mu.Unlock()
		return nil
	})

	cfg := DefaultSchedulerConfig()
	cfg.MaxCycles = 1
	f := newSchedulerFixture(action, cfg)

	err := f.scheduler.Run(context.Background(), testAccounts("c", "a", "b"))
	require.NoError(t, err)

	assert.False(t, overlap.Load())
	assert.Equal(t, []domain.AccountID{"c", "a", "b"}, order)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, f.sleeper.Sleeps())
}

func TestSchedulerMaxCyclesWaitsIntervalBetweenCycles(t *testing.T) {
	calls := atomic.Int32{}
	action := ports.ActionFunc(func(context.Context, domain.Account) error {
		calls.Add(1)
		return nil
	})

	cfg := DefaultSchedulerConfig()
	cfg.MaxCycles = 2
	f := newSchedulerFixture(action, cfg)

	err := f.scheduler.Run(context.Background(), testAccounts("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{10 * time.Second, 24 * time.Hour, 10 * time.Second}, f.sleeper.Sleeps())

	require.Len(t, f.observer.cycles, 2)
	assert.Equal(t, 2, f.observer.cycles[0].Count(domain.ResultSuccess))
	assert.Equal(t, 2, f.observer.cycles[1].Count(domain.ResultSkipped))
	for _, result := range f.observer.cycles[1].Results {
		assert.Equal(t, domain.SkipReasonCooldown, result.Reason)
	}
}

func TestSchedulerStopsAfterCurrentAccount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var called []domain.AccountID
	action := ports.ActionFunc(func(attemptCtx context.Context, account domain.Account) error {
		called = append(called, account.ID)
		cancel()
		return attemptCtx.Err()
	})

	f := newSchedulerFixture(action, DefaultSchedulerConfig())

	err := f.scheduler.Run(ctx, testAccounts("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, []domain.AccountID{"a"}, called)
	checkpoint, err := f.store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, testNow.Equal(checkpoint.LastSuccess))

	_, err = f.store.Get(context.Background(), "b")
	require.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestSchedulerSkipsExpiredAccountForRestOfRun(t *testing.T) {
	calls := map[domain.AccountID]int{}
	action := ports.ActionFunc(func(_ context.Context, account domain.Account) error {
		calls[account.ID]++
		if account.ID == "b" {
			return domain.ErrAuthExpired
		}
		return nil
	})

	cfg := DefaultSchedulerConfig()
	cfg.MaxCycles = 2
	f := newSchedulerFixture(action, cfg)

	err := f.scheduler.Run(context.Background(), testAccounts("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls["b"])
	require.Len(t, f.observer.cycles, 2)

	first := f.observer.cycles[0].Results[1]
	assert.Equal(t, domain.ResultFailed, first.Kind)
	require.ErrorIs(t, first.Err, domain.ErrAuthExpired)

	second := f.observer.cycles[1].Results[1]
	assert.Equal(t, domain.ResultSkipped, second.Kind)
	assert.Equal(t, domain.SkipReasonAuthExpired, second.Reason)
}

func TestSchedulerSkipsDisabledAccounts(t *testing.T) {
	var called []domain.AccountID
	action := ports.ActionFunc(func(_ context.Context, account domain.Account) error {
		called = append(called, account.ID)
		return nil
	})

	cfg := DefaultSchedulerConfig()
	cfg.MaxCycles = 1
	f := newSchedulerFixture(action, cfg)

	accounts := testAccounts("a", "b")
	accounts[0].Disabled = true

	report := f.scheduler.RunCycle(context.Background(), accounts)

	assert.Equal(t, []domain.AccountID{"b"}, called)
	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.SkipReasonDisabled, report.Results[0].Reason)
	assert.Equal(t, 1, report.Cycle)
}

func TestSchedulerRequiresAccounts(t *testing.T) {
	f := newSchedulerFixture(ports.ActionFunc(func(context.Context, domain.Account) error { return nil }), DefaultSchedulerConfig())

	err := f.scheduler.Run(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoAccounts)
}

func TestSchedulerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultSchedulerConfig().Validate())

	cfg := DefaultSchedulerConfig()
	cfg.AccountDelay = DelayRange{Min: 20 * time.Second, Max: 10 * time.Second}
	cfg.MaxCycles = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "account delay")
	assert.ErrorContains(t, err, "max cycles")
}
