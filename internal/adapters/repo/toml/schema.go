package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID           string `toml:"id"`
	Name         string `toml:"name,omitempty"`
	SessionToken string `toml:"session_token"`
	Proxy        string `toml:"proxy,omitempty"`
	Disabled     bool   `toml:"disabled,omitempty"`
}

const currentCheckpointsSchemaVersion = 1

type checkpointsFileSchema struct {
	Version     int                `toml:"version"`
	Checkpoints []checkpointSchema `toml:"checkpoints"`
}

func (s *checkpointsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCheckpointsSchemaVersion
	}
}

func (s checkpointsFileSchema) validateVersion() error {
	if s.Version > currentCheckpointsSchemaVersion {
		return fmt.Errorf("unsupported checkpoints schema version %d (current %d)", s.Version, currentCheckpointsSchemaVersion)
	}

	return nil
}

type checkpointSchema struct {
	AccountID string `toml:"account_id"`
	// Unix milliseconds.
	LastSuccess int64 `toml:"last_success"`
}
