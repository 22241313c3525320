package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/jmoiron/sqlx"
)

const defaultHistoryLimit = 20

// Store persists checkpoints and the job run history in one sqlite database.
type Store struct {
	db *sqlx.DB
}

var (
	_ ports.CheckpointStore = (*Store)(nil)
	_ ports.ResultRecorder  = (*Store)(nil)
	_ ports.RunHistory      = (*Store)(nil)
)

type checkpointRow struct {
	AccountID   string `db:"account_id"`
	LastSuccess int64  `db:"last_success"`
}

type jobRunRow struct {
	ID         int64  `db:"id"`
	AccountID  string `db:"account_id"`
	Kind       string `db:"kind"`
	Reason     string `db:"reason"`
	Error      string `db:"error"`
	Attempts   int    `db:"attempts"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (domain.Checkpoint, error) {
	var row checkpointRow
	query := `SELECT account_id, last_success FROM checkpoints WHERE account_id = ?`
	if err := s.db.GetContext(ctx, &row, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Checkpoint{}, domain.ErrCheckpointNotFound
		}
		return domain.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}

	return domain.CheckpointFromUnixMilli(id, row.LastSuccess), nil
}

func (s *Store) Set(ctx context.Context, checkpoint domain.Checkpoint) error {
	query := `
		INSERT INTO checkpoints (account_id, last_success)
		VALUES (:account_id, :last_success)
		ON CONFLICT (account_id) DO UPDATE SET last_success = excluded.last_success
	`
	_, err := s.db.NamedExecContext(ctx, query, checkpointRow{
		AccountID:   string(checkpoint.AccountID),
		LastSuccess: checkpoint.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Checkpoint, error) {
	var rows []checkpointRow
	query := `SELECT account_id, last_success FROM checkpoints ORDER BY account_id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	checkpoints := make([]domain.Checkpoint, 0, len(rows))
	for _, row := range rows {
		checkpoints = append(checkpoints, domain.CheckpointFromUnixMilli(domain.AccountID(row.AccountID), row.LastSuccess))
	}

	return checkpoints, nil
}

func (s *Store) Delete(ctx context.Context, id domain.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE account_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	return nil
}

func (s *Store) Record(ctx context.Context, result domain.JobResult) error {
	query := `
		INSERT INTO job_runs (account_id, kind, reason, error, attempts, started_at, finished_at)
		VALUES (:account_id, :kind, :reason, :error, :attempts, :started_at, :finished_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, jobRunRow{
		AccountID:  string(result.AccountID),
		Kind:       string(result.Kind),
		Reason:     result.Reason,
		Error:      result.ErrorMessage(),
		Attempts:   result.Attempts,
		StartedAt:  unixMilli(result.StartedAt),
		FinishedAt: unixMilli(result.FinishedAt),
	})
	if err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}

	return nil
}

func (s *Store) History(ctx context.Context, id domain.AccountID, limit int) ([]domain.JobResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var (
		rows []jobRunRow
		err  error
	)
	if id == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM job_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM job_runs WHERE account_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`, string(id), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}

	results := make([]domain.JobResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}

	return results, nil
}

func (r jobRunRow) toDomain() domain.JobResult {
	result := domain.JobResult{
		AccountID:  domain.AccountID(r.AccountID),
		Kind:       domain.ResultKind(r.Kind),
		Reason:     r.Reason,
		Attempts:   r.Attempts,
		StartedAt:  fromUnixMilli(r.StartedAt),
		FinishedAt: fromUnixMilli(r.FinishedAt),
	}
	if r.Error != "" {
		result.Err = errors.New(r.Error)
	}

	return result
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
