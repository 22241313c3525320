package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/spf13/viper"
)

const (
	checkpointsPathKey  = "checkpoint.path"
	checkpointsFileName = "checkpoints.toml"
	corruptSuffix       = ".corrupt-"
)

// CheckpointStore keeps every account's checkpoint in one checkpoints.toml.
type CheckpointStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.CheckpointStore = (*CheckpointStore)(nil)

func NewCheckpointStore(cfg *viper.Viper) (*CheckpointStore, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(checkpointsPathKey)
	if path == "" {
		var err error
		path, err = defaultPath(checkpointsFileName)
		if err != nil {
			return nil, err
		}
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoints path: %w", err)
	}

	return &CheckpointStore{path: path, mu: lockForPath(path)}, nil
}

func (s *CheckpointStore) Get(ctx context.Context, id domain.AccountID) (domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.Checkpoint{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return domain.Checkpoint{}, err
	}

	for _, entry := range file.Checkpoints {
		if entry.AccountID == string(id) {
			return domain.CheckpointFromUnixMilli(id, entry.LastSuccess), nil
		}
	}

	return domain.Checkpoint{}, domain.ErrCheckpointNotFound
}

func (s *CheckpointStore) Set(ctx context.Context, checkpoint domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchemaForWrite()
	if err != nil {
		return err
	}

	encoded := checkpointSchema{AccountID: string(checkpoint.AccountID), LastSuccess: checkpoint.UnixMilli()}
	updated := false
	for i := range file.Checkpoints {
		if file.Checkpoints[i].AccountID == encoded.AccountID {
			file.Checkpoints[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Checkpoints = append(file.Checkpoints, encoded)
	}

	if err := writeTOMLFile(s.path, file); err != nil {
		return fmt.Errorf("write checkpoints file: %w", err)
	}

	return nil
}

func (s *CheckpointStore) List(ctx context.Context) ([]domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	checkpoints := make([]domain.Checkpoint, 0, len(file.Checkpoints))
	for _, entry := range file.Checkpoints {
		checkpoints = append(checkpoints, domain.CheckpointFromUnixMilli(domain.AccountID(entry.AccountID), entry.LastSuccess))
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].AccountID < checkpoints[j].AccountID
	})

	return checkpoints, nil
}

func (s *CheckpointStore) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchemaForWrite()
	if err != nil {
		return err
	}

	kept := file.Checkpoints[:0]
	for _, entry := range file.Checkpoints {
		if entry.AccountID != string(id) {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(file.Checkpoints) {
		return nil
	}
	file.Checkpoints = kept

	if err := writeTOMLFile(s.path, file); err != nil {
		return fmt.Errorf("write checkpoints file: %w", err)
	}

	return nil
}

func (s *CheckpointStore) readSchema() (checkpointsFileSchema, error) {
	var file checkpointsFileSchema
	if err := readTOMLFile(s.path, &file); err != nil {
		return checkpointsFileSchema{}, err
	}
	if err := file.validateVersion(); err != nil {
		return checkpointsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

// readSchemaForWrite moves an undecodable file aside so writers can start
// over instead of failing on every cycle.
func (s *CheckpointStore) readSchemaForWrite() (checkpointsFileSchema, error) {
	file, err := s.readSchema()
	if err == nil || !errors.Is(err, errUndecodable) {
		return file, err
	}

	backup := fmt.Sprintf("%s%s%d", s.path, corruptSuffix, time.Now().UnixMilli())
	if renameErr := os.Rename(s.path, backup); renameErr != nil {
		return checkpointsFileSchema{}, fmt.Errorf("%w (move aside: %v)", err, renameErr)
	}

	return checkpointsFileSchema{}, nil
}
