// Package execaction runs an external command once per account. The account
// is passed through CYCLERUN_* environment variables.
package execaction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

const (
	DefaultAuthExpiredExitCode = 77
	DefaultNothingToDoExitCode = 78
	maxStderrBytes             = 4 << 10
	// waitDelay bounds how long Run waits for output pipes after the command is killed.
	waitDelay = 5 * time.Second
)

type Config struct {
	Command             []string
	Dir                 string
	AuthExpiredExitCode int
	NothingToDoExitCode int
}

type Action struct {
	cfg Config
}

var _ ports.Action = (*Action)(nil)

func New(cfg Config) (*Action, error) {
	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		return nil, errors.New("exec action command is required")
	}
	if cfg.AuthExpiredExitCode == 0 {
		cfg.AuthExpiredExitCode = DefaultAuthExpiredExitCode
	}
	if cfg.NothingToDoExitCode == 0 {
		cfg.NothingToDoExitCode = DefaultNothingToDoExitCode
	}
	if cfg.AuthExpiredExitCode == cfg.NothingToDoExitCode {
		return nil, fmt.Errorf("exec action exit codes must differ, both are %d", cfg.AuthExpiredExitCode)
	}

	return &Action{cfg: cfg}, nil
}

func (a *Action) Perform(ctx context.Context, account domain.Account) error {
	child := exec.CommandContext(ctx, a.cfg.Command[0], a.cfg.Command[1:]...)
	child.Dir = a.cfg.Dir
	child.Env = append(os.Environ(),
		"CYCLERUN_ACCOUNT_ID="+string(account.ID),
		"CYCLERUN_SESSION_TOKEN="+account.SessionToken,
		"CYCLERUN_PROXY="+account.Proxy,
	)

	child.WaitDelay = waitDelay
	killProcessGroup(child)

	var stderr bytes.Buffer
	child.Stderr = &limitedWriter{buf: &stderr, max: maxStderrBytes}

	err := child.Run()
	if err == nil {
		return nil
	}

	detail := strings.TrimSpace(stderr.String())
	if ctxErr := ctx.Err(); ctxErr != nil {
		if detail != "" {
			return fmt.Errorf("run command: %w: %w: %s", ctxErr, err, detail)
		}
		return fmt.Errorf("run command: %w: %w", ctxErr, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case a.cfg.AuthExpiredExitCode:
			return fmt.Errorf("%w: %s", domain.ErrAuthExpired, detailOr(detail, "command reported expired session"))
		case a.cfg.NothingToDoExitCode:
			return fmt.Errorf("%w: %s", domain.ErrNothingToDo, detailOr(detail, "command reported nothing to do"))
		}
	}
	if detail != "" {
		return fmt.Errorf("run command: %w: %s", err, detail)
	}

	return fmt.Errorf("run command: %w", err)
}

func detailOr(detail, fallback string) string {
	if detail == "" {
		return fallback
	}
	return detail
}

// limitedWriter keeps the first max bytes and drops the rest.
type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if remaining := w.max - w.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
