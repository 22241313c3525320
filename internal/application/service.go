package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

type Status struct {
	Account        domain.Account
	LastSuccess    time.Time
	NextEligibleAt time.Time
	Eligible       bool
}

// Service backs the inspection and maintenance commands. The scheduler does not use it.
type Service struct {
	accounts ports.AccountRepository
	store    ports.CheckpointStore
	clock    ports.Clock
	cooldown time.Duration
}

func NewService(accounts ports.AccountRepository, store ports.CheckpointStore, clock ports.Clock, cooldown time.Duration) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		accounts: accounts,
		store:    store,
		clock:    clock,
		cooldown: cooldown,
	}
}

func (s *Service) GetStatus(ctx context.Context, id domain.AccountID) (Status, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return Status{}, fmt.Errorf("get account by id: %w", err)
	}

	checkpoint, err := s.store.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrCheckpointNotFound) {
		return Status{}, fmt.Errorf("get checkpoint: %w", err)
	}

	return s.statusFromAccount(account, checkpoint), nil
}

func (s *Service) GetStatusAll(ctx context.Context) ([]Status, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	checkpoints, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	byID := make(map[domain.AccountID]domain.Checkpoint, len(checkpoints))
	for _, checkpoint := range checkpoints {
		byID[checkpoint.AccountID] = checkpoint
	}

	statuses := make([]Status, 0, len(accounts))
	for _, account := range accounts {
		statuses = append(statuses, s.statusFromAccount(account, byID[account.ID]))
	}

	return statuses, nil
}

func (s *Service) statusFromAccount(account domain.Account, checkpoint domain.Checkpoint) Status {
	account.SessionToken = domain.MaskToken(account.SessionToken)

	return Status{
		Account:        account,
		LastSuccess:    checkpoint.LastSuccess,
		NextEligibleAt: checkpoint.NextEligibleAt(s.cooldown),
		Eligible:       !account.Disabled && !checkpoint.Gated(s.clock.Now(), s.cooldown),
	}
}

func (s *Service) ResetCheckpoint(ctx context.Context, id domain.AccountID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	return nil
}

// ImportAccounts saves every valid account and reports how many were written.
func (s *Service) ImportAccounts(ctx context.Context, writer ports.AccountWriter, accounts []domain.Account) (int, error) {
	if len(accounts) == 0 {
		return 0, domain.ErrNoAccounts
	}

	imported := 0
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			return imported, fmt.Errorf("validate account: %w", err)
		}
		if err := writer.Save(ctx, account); err != nil {
			return imported, fmt.Errorf("save account %s: %w", account.ID, err)
		}
		imported++
	}

	return imported, nil
}

// Try runs the action once for one account, bypassing the cooldown gate and
// retries. With record set, a success updates the checkpoint.
func (s *Service) Try(ctx context.Context, id domain.AccountID, action ports.Action, timeout time.Duration, record bool) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	tryCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		tryCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := action.Perform(tryCtx, account); err != nil {
		return fmt.Errorf("account %s: perform action: %w", account.ID, err)
	}

	if !record {
		return nil
	}

	if err := s.store.Set(ctx, domain.Checkpoint{AccountID: account.ID, LastSuccess: s.clock.Now()}); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return nil
}

func (s *Service) History(ctx context.Context, history ports.RunHistory, id domain.AccountID, limit int) ([]domain.JobResult, error) {
	if id != "" {
		if _, err := s.accounts.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("get account by id: %w", err)
		}
	}

	results, err := history.History(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return results, nil
}
