package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

const (
	storeDirMode       = 0o700
	checkpointFileMode = 0o600
	filePrefix         = "last_checkin_time_"
	fileSuffix         = ".txt"
)

// Store keeps one file per account holding the last success as Unix milliseconds.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CheckpointStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Set(ctx context.Context, checkpoint domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForID(checkpoint.AccountID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	tempFile, err := os.CreateTemp(s.root, "."+filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint file: %w", err)
	}
	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.WriteString(strconv.FormatInt(checkpoint.UnixMilli(), 10)); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write checkpoint %q: %w", checkpoint.AccountID, err)
	}
	if err := tempFile.Chmod(checkpointFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod checkpoint %q: %w", checkpoint.AccountID, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close checkpoint %q: %w", checkpoint.AccountID, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace checkpoint %q: %w", checkpoint.AccountID, err)
	}
	cleanup = false

	return nil
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.Checkpoint{}, err
	}

	path, err := s.pathForID(id)
	if err != nil {
		return domain.Checkpoint{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return readCheckpoint(id, path)
}

func (s *Store) List(ctx context.Context) ([]domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint directory: %w", err)
	}

	checkpoints := make([]domain.Checkpoint, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		id := domain.AccountID(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		checkpoint, err := readCheckpoint(id, filepath.Join(s.root, name))
		if err != nil {
			// Unreadable files count as never run; Get still reports them.
			continue
		}
		checkpoints = append(checkpoints, checkpoint)
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

	path, err := s.pathForID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete checkpoint %q: %w", id, err)
	}

	return nil
}

func readCheckpoint(id domain.AccountID, path string) (domain.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Checkpoint{}, domain.ErrCheckpointNotFound
		}
		return domain.Checkpoint{}, fmt.Errorf("read checkpoint %q: %w", id, err)
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("parse checkpoint %q: %w", id, err)
	}

	return domain.CheckpointFromUnixMilli(id, ms), nil
}

func (s *Store) pathForID(id domain.AccountID) (string, error) {
	raw := string(id)
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("account id is empty")
	}

	if raw != strings.TrimSpace(raw) || strings.ContainsAny(raw, `/\`) || raw == "." || raw == ".." {
		return "", fmt.Errorf("invalid account id %q for checkpoint file", id)
	}

	return filepath.Join(s.root, filePrefix+raw+fileSuffix), nil
}
