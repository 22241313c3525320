package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"go.uber.org/zap"
)

type SchedulerConfig struct {
	Interval       time.Duration
	IntervalJitter time.Duration
	AccountDelay   DelayRange
	// MaxCycles stops Run after that many cycles. Zero runs forever.
	MaxCycles int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:       24 * time.Hour,
		IntervalJitter: 10 * time.Minute,
		AccountDelay:   DelayRange{Min: 10 * time.Second, Max: 20 * time.Second},
	}
}

func (c SchedulerConfig) Validate() error {
	var errs []error
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %s", c.Interval))
	}
	if c.IntervalJitter < 0 {
		errs = append(errs, fmt.Errorf("interval jitter must not be negative, got %s", c.IntervalJitter))
	}
	if err := c.AccountDelay.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("account delay: %w", err))
	}
	if c.MaxCycles < 0 {
		errs = append(errs, fmt.Errorf("max cycles must not be negative, got %d", c.MaxCycles))
	}

	return errors.Join(errs...)
}

type CycleReport struct {
	Cycle      int
	Results    []domain.JobResult
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r CycleReport) Count(kind domain.ResultKind) int {
	count := 0
	for _, result := range r.Results {
		if result.Kind == kind {
			count++
		}
	}
	return count
}

// Scheduler walks the accounts one at a time, in order, on a repeating cycle.
// It is not safe for concurrent use.
type Scheduler struct {
	executor JobExecutor
	action   ports.Action
	clock    ports.Clock
	sleeper  ports.Sleeper
	jitter   Jitter
	observer Observer
	logger   *zap.Logger
	cfg      SchedulerConfig

	cycle   int
	expired map[domain.AccountID]struct{}
}

type SchedulerOption func(*Scheduler)

func WithSchedulerClock(clock ports.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = clock }
}

func WithSchedulerSleeper(sleeper ports.Sleeper) SchedulerOption {
	return func(s *Scheduler) { s.sleeper = sleeper }
}

func WithSchedulerJitter(jitter Jitter) SchedulerOption {
	return func(s *Scheduler) { s.jitter = jitter }
}

func WithSchedulerObserver(observer Observer) SchedulerOption {
	return func(s *Scheduler) { s.observer = observer }
}

func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

func NewScheduler(executor JobExecutor, action ports.Action, cfg SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		executor: executor,
		action:   action,
		clock:    ports.SystemClock{},
		sleeper:  ports.SystemSleeper{},
		jitter:   globalJitter{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
		cfg:      cfg,
		expired:  map[domain.AccountID]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("scheduler")

	return s
}

// Run repeats cycles until ctx is cancelled or MaxCycles is reached.
// Cancellation lets the current account finish and then returns nil.
func (s *Scheduler) Run(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return domain.ErrNoAccounts
	}

	s.logger.Info("scheduler started",
		zap.Int("accounts", len(accounts)),
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("max_cycles", s.cfg.MaxCycles),
	)

	for {
		report := s.RunCycle(ctx, accounts)

		if ctx.Err() != nil {
			s.logger.Info("stop requested, scheduler exiting", zap.Int("cycle", report.Cycle))
			return nil
		}
		if s.cfg.MaxCycles > 0 && report.Cycle >= s.cfg.MaxCycles {
			s.logger.Info("max cycles reached, scheduler exiting", zap.Int("cycles", report.Cycle))
			return nil
		}

		wait := s.nextCycleDelay()
		s.logger.Info("waiting for next cycle",
			zap.Duration("wait", wait),
			zap.Time("next_cycle_at", s.clock.Now().Add(wait)),
		)
		if err := s.sleeper.Sleep(ctx, wait); err != nil {
			s.logger.Info("stop requested, scheduler exiting", zap.Int("cycle", report.Cycle))
			return nil
		}
	}
}

// RunCycle processes every account once, sequentially, in the given order.
func (s *Scheduler) RunCycle(ctx context.Context, accounts []domain.Account) CycleReport {
	s.cycle++
	report := CycleReport{
		Cycle:     s.cycle,
		Results:   make([]domain.JobResult, 0, len(accounts)),
		StartedAt: s.clock.Now(),
	}
	log := s.logger.With(zap.Int("cycle", s.cycle))
	log.Info("cycle started", zap.Int("accounts", len(accounts)))

	for i, account := range accounts {
		if ctx.Err() != nil {
			log.Info("stop requested, remaining accounts not started", zap.Int("remaining", len(accounts)-i))
			break
		}

		result := s.runAccount(ctx, log, account)
		report.Results = append(report.Results, result)

		if i == len(accounts)-1 {
			continue
		}

		delay := s.cfg.AccountDelay.Pick(s.jitter)
		log.Debug("pausing before next account", zap.Duration("delay", delay))
		if err := s.sleeper.Sleep(ctx, delay); err != nil {
			log.Info("stop requested, remaining accounts not started", zap.Int("remaining", len(accounts)-i-1))
			break
		}
	}

	report.FinishedAt = s.clock.Now()
	log.Info("cycle finished",
		zap.Int("succeeded", report.Count(domain.ResultSuccess)),
		zap.Int("skipped", report.Count(domain.ResultSkipped)),
		zap.Int("failed", report.Count(domain.ResultFailed)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	s.observer.ObserveCycle(report)

	return report
}

func (s *Scheduler) runAccount(ctx context.Context, log *zap.Logger, account domain.Account) domain.JobResult {
	log = log.With(zap.String("account", string(account.ID)))

	if account.Disabled {
		log.Info("account disabled, skipping")
		return domain.Skipped(account.ID, domain.SkipReasonDisabled)
	}
	if _, ok := s.expired[account.ID]; ok {
		log.Info("session expired earlier in this run, skipping")
		return domain.Skipped(account.ID, domain.SkipReasonAuthExpired)
	}

	log.Info("processing account", zap.String("name", account.DisplayName()))
	result := s.executor.Execute(ctx, account, s.action)

	switch result.Kind {
	case domain.ResultSuccess:
		log.Info("account done", zap.Int("attempts", result.Attempts))
	case domain.ResultSkipped:
		log.Info("account skipped", zap.String("reason", result.Reason))
	case domain.ResultFailed:
		if errors.Is(result.Err, domain.ErrAuthExpired) {
			s.expired[account.ID] = struct{}{}
		}
		log.Warn("account failed, will retry next cycle", zap.Int("attempts", result.Attempts), zap.Error(result.Err))
	}

	return result
}

func (s *Scheduler) nextCycleDelay() time.Duration {
	return DelayRange{Min: s.cfg.Interval, Max: s.cfg.Interval + s.cfg.IntervalJitter}.Pick(s.jitter)
}
