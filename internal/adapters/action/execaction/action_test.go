package execaction

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shellAction(t *testing.T, script string) *Action {
	t.Helper()

	action, err := New(Config{Command: []string{"sh", "-c", script}})
	require.NoError(t, err)
	return action
}

func TestActionPassesAccountEnvironment(t *testing.T) {
	requireShell(t)

	action := shellAction(t, `test "$CYCLERUN_ACCOUNT_ID" = acc-1 && test "$CYCLERUN_SESSION_TOKEN" = tok && test "$CYCLERUN_PROXY" = http://p:1`)

	err := action.Perform(context.Background(), domain.Account{ID: "acc-1", SessionToken: "tok", Proxy: "http://p:1"})
	require.NoError(t, err)
}

func TestActionMapsExitCodes(t *testing.T) {
	requireShell(t)

	testCases := []struct {
		name    string
		script  string
		wantErr error
	}{
		{name: "auth expired", script: "echo 'login page' >&2; exit 77", wantErr: domain.ErrAuthExpired},
		{name: "nothing to do", script: "exit 78", wantErr: domain.ErrNothingToDo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := shellAction(t, tc.script).Perform(context.Background(), domain.Account{ID: "acc-1"})
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestActionOtherFailureIsTransientWithStderr(t *testing.T) {
	requireShell(t)

	err := shellAction(t, "echo 'button not found' >&2; exit 1").Perform(context.Background(), domain.Account{ID: "acc-1"})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.ErrorContains(t, err, "button not found")
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "command is required")

	_, err = New(Config{Command: []string{"true"}, AuthExpiredExitCode: 5, NothingToDoExitCode: 5})
	assert.ErrorContains(t, err, "must differ")
}

func TestActionTimeoutKillsSpawnedChildren(t *testing.T) {
	requireShell(t)

	// sleep runs as a child of sh and inherits its stderr pipe.
	action := shellAction(t, "echo started >&2; sleep 8; true")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	startedAt := time.Now()
	err := action.Perform(ctx, domain.Account{ID: "acc-1"})
	elapsed := time.Since(startedAt)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 4*time.Second)
}

func TestActionTimeoutWithBackgroundGrandchild(t *testing.T) {
	requireShell(t)

	action := shellAction(t, "(sleep 8; echo late >&2) & wait")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	startedAt := time.Now()
	err := action.Perform(ctx, domain.Account{ID: "acc-1"})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(startedAt), waitDelay+time.Second)
}
