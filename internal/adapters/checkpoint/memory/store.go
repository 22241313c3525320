package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

// Store keeps checkpoints in a map. Nothing survives the process.
type Store struct {
	mu          sync.RWMutex
	checkpoints map[domain.AccountID]int64
}

var _ ports.CheckpointStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{checkpoints: map[domain.AccountID]int64{}}
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.Checkpoint{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ms, ok := s.checkpoints[id]
	if !ok {
		return domain.Checkpoint{}, domain.ErrCheckpointNotFound
	}

	return domain.CheckpointFromUnixMilli(id, ms), nil
}

func (s *Store) Set(ctx context.Context, checkpoint domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints[checkpoint.AccountID] = checkpoint.UnixMilli()
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := make([]domain.Checkpoint, 0, len(s.checkpoints))
	for id, ms := range s.checkpoints {
		checkpoints = append(checkpoints, domain.CheckpointFromUnixMilli(id, ms))
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].AccountID < checkpoints[j].AccountID
	})

	return checkpoints, nil
}

func (s *Store) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.checkpoints, id)
	return nil
}
