package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultCheckpointWriteAttempts = 3
	defaultCheckpointWriteDelay    = 2 * time.Second
)

type ExecutorConfig struct {
	Cooldown                time.Duration
	Retry                   RetryPolicy
	CheckpointWriteAttempts int
	CheckpointWriteDelay    time.Duration
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Cooldown:                24 * time.Hour,
		Retry:                   DefaultRetryPolicy(),
		CheckpointWriteAttempts: defaultCheckpointWriteAttempts,
		CheckpointWriteDelay:    defaultCheckpointWriteDelay,
	}
}

// JobExecutor runs one gated, retried unit of work for an account.
type JobExecutor interface {
	Execute(ctx context.Context, account domain.Account, action ports.Action) domain.JobResult
}

type Executor struct {
	store    ports.CheckpointStore
	recorder ports.ResultRecorder
	clock    ports.Clock
	sleeper  ports.Sleeper
	jitter   Jitter
	observer Observer
	logger   *zap.Logger
	cfg      ExecutorConfig
}

var _ JobExecutor = (*Executor)(nil)

type ExecutorOption func(*Executor)

func WithResultRecorder(recorder ports.ResultRecorder) ExecutorOption {
	return func(e *Executor) { e.recorder = recorder }
}

func WithExecutorSleeper(sleeper ports.Sleeper) ExecutorOption {
	return func(e *Executor) { e.sleeper = sleeper }
}

func WithExecutorJitter(jitter Jitter) ExecutorOption {
	return func(e *Executor) { e.jitter = jitter }
}

func WithExecutorObserver(observer Observer) ExecutorOption {
	return func(e *Executor) { e.observer = observer }
}

func WithExecutorLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

func NewExecutor(store ports.CheckpointStore, clock ports.Clock, cfg ExecutorConfig, opts ...ExecutorOption) *Executor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.CheckpointWriteAttempts < 1 {
		cfg.CheckpointWriteAttempts = defaultCheckpointWriteAttempts
	}

	e := &Executor{
		store:    store,
		clock:    clock,
		sleeper:  ports.SystemSleeper{},
		jitter:   globalJitter{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.Named("executor")

	return e
}

func (e *Executor) Execute(ctx context.Context, account domain.Account, action ports.Action) domain.JobResult {
	log := e.logger.With(zap.String("account", string(account.ID)))

	startedAt := e.clock.Now()
	result := e.execute(ctx, log, account, action)
	result.AccountID = account.ID
	result.StartedAt = startedAt
	result.FinishedAt = e.clock.Now()

	e.observer.ObserveResult(result)
	e.record(ctx, log, result)

	return result
}

func (e *Executor) execute(ctx context.Context, log *zap.Logger, account domain.Account, action ports.Action) domain.JobResult {
	now := e.clock.Now()

	checkpoint, err := e.store.Get(ctx, account.ID)
	switch {
	case err == nil:
		if checkpoint.Gated(now, e.cfg.Cooldown) {
			log.Info("cooldown active, skipping",
				zap.Time("last_success", checkpoint.LastSuccess),
				zap.String("wait", checkpoint.Remaining(now, e.cfg.Cooldown)),
			)
			result := domain.Skipped(account.ID, domain.SkipReasonCooldown)
			result.NextEligibleAt = checkpoint.NextEligibleAt(e.cfg.Cooldown)
			return result
		}
	case errors.Is(err, domain.ErrCheckpointNotFound):
		log.Debug("no checkpoint recorded, running")
	default:
		log.Warn("read checkpoint failed, treating as never run", zap.Error(err))
	}

	policy := e.cfg.Retry
	attempts := 0
	var lastErr error

	operation := func() error {
		attempts++
		log.Info("running action", zap.Int("attempt", attempts), zap.Int("max_attempts", policy.MaxAttempts))

		err := e.attempt(ctx, account, action)
		e.observer.ObserveAttempt(account.ID, err)
		if err == nil {
			return nil
		}

		lastErr = err
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		log.Warn("attempt failed", zap.Int("attempt", attempts), zap.Int("max_attempts", policy.MaxAttempts), zap.Error(err))
		return err
	}
	notify := func(_ error, delay time.Duration) {
		log.Info("retrying after delay", zap.Duration("delay", delay))
	}

	err = backoff.RetryNotifyWithTimer(operation,
		newBackOff(ctx, policy.Delay, e.jitter, policy.MaxAttempts),
		notify,
		newSleeperTimer(ctx, e.sleeper),
	)

	switch {
	case err == nil:
		e.saveCheckpoint(ctx, log, domain.Checkpoint{AccountID: account.ID, LastSuccess: e.clock.Now()})
		log.Info("action succeeded", zap.Int("attempt", attempts))
		return domain.Succeeded(account.ID, attempts)
	case errors.Is(lastErr, domain.ErrNothingToDo):
		log.Info("nothing to do, will check again next cycle", zap.Error(lastErr))
		result := domain.Skipped(account.ID, domain.SkipReasonNothingToDo)
		result.Attempts = attempts
		return result
	case errors.Is(lastErr, domain.ErrAuthExpired):
		log.Warn("session expired, update the session token for this account", zap.Error(lastErr))
		return domain.Failed(account.ID, attempts, lastErr)
	case attempts < policy.MaxAttempts && ctx.Err() != nil:
		return domain.Failed(account.ID, attempts, fmt.Errorf("wait before retry: %w", ctx.Err()))
	}

	exhausted := fmt.Errorf("%w after %d attempts: %w", domain.ErrExhaustedRetries, attempts, lastErr)
	coolOff := policy.CoolOff.Pick(e.jitter)
	log.Error("exhausted retries, cooling off",
		zap.Int("attempts", attempts),
		zap.Duration("cool_off", coolOff),
		zap.Error(lastErr),
	)
	if err := e.sleeper.Sleep(ctx, coolOff); err != nil {
		log.Info("cool-off interrupted", zap.Error(err))
		exhausted = errors.Join(exhausted, fmt.Errorf("cool-off interrupted: %w", err))
	}

	return domain.Failed(account.ID, attempts, exhausted)
}

// attempt runs the action once. A stop request does not cancel a running
// attempt; only the attempt timeout does.
func (e *Executor) attempt(ctx context.Context, account domain.Account, action ports.Action) (err error) {
	timeout := e.cfg.Retry.AttemptTimeout
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	if err := action.Perform(attemptCtx, account); err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("attempt timed out after %s: %w", timeout, err)
		}
		return err
	}

	return nil
}

func (e *Executor) saveCheckpoint(ctx context.Context, log *zap.Logger, checkpoint domain.Checkpoint) {
	writeCtx := context.WithoutCancel(ctx)
	retries := uint64(e.cfg.CheckpointWriteAttempts - 1)

	attempt := 0
	write := func() error {
		attempt++
		return e.store.Set(writeCtx, checkpoint)
	}
	notify := func(err error, _ time.Duration) {
		log.Warn("write checkpoint failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	err := backoff.RetryNotifyWithTimer(write,
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.cfg.CheckpointWriteDelay), retries),
		notify,
		newSleeperTimer(writeCtx, e.sleeper),
	)
	if err == nil {
		return
	}

	log.Error("checkpoint not persisted, account may run again before its cooldown ends",
		zap.Int("attempts", attempt),
		zap.Time("last_success", checkpoint.LastSuccess),
		zap.Error(err),
	)
}

func (e *Executor) record(ctx context.Context, log *zap.Logger, result domain.JobResult) {
	if e.recorder == nil {
		return
	}

	if err := e.recorder.Record(context.WithoutCancel(ctx), result); err != nil {
		log.Warn("record job result failed", zap.Error(err))
	}
}
