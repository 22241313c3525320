package ports

import (
	"context"

	"github.com/bnema/cyclerun/internal/domain"
)

type CheckpointStore interface {
	// Get returns domain.ErrCheckpointNotFound when the account never succeeded.
	Get(ctx context.Context, id domain.AccountID) (domain.Checkpoint, error)
	Set(ctx context.Context, checkpoint domain.Checkpoint) error
	List(ctx context.Context) ([]domain.Checkpoint, error)
	Delete(ctx context.Context, id domain.AccountID) error
}

type ResultRecorder interface {
	Record(ctx context.Context, result domain.JobResult) error
}

// RunHistory lists recorded results, newest first. An empty id lists every account.
type RunHistory interface {
	History(ctx context.Context, id domain.AccountID, limit int) ([]domain.JobResult, error)
}
