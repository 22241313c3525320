// Package pass resolves session tokens stored in the pass password manager.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/cyclerun/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, args ...string) (stdout string, stderr string, err error)

type Resolver struct {
	run runFunc
}

var _ ports.SecretResolver = (*Resolver)(nil)

func NewResolver() *Resolver {
	return &Resolver{run: runPassCommand}
}

// Resolve returns the first line of the pass entry, the pass convention for
// the secret itself.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(ref) == "" {
		return "", errors.New("pass entry name is required")
	}

	stdout, stderr, err := r.run(ctx, "show", ref)
	if err != nil {
		return "", formatError(ref, err, stderr)
	}

	secret, _, _ := strings.Cut(stdout, "\n")
	secret = strings.TrimSuffix(secret, "\r")
	if secret == "" {
		return "", fmt.Errorf("pass show %q: entry is empty", ref)
	}

	return secret, nil
}

func runPassCommand(ctx context.Context, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(ref string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass show %q: %w", ref, err)
	}

	return fmt.Errorf("pass show %q: %w: %s", ref, err, stderr)
}
