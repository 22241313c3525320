package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointGated(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		checkpoint Checkpoint
		cooldown   time.Duration
		want       bool
	}{
		{name: "never run", checkpoint: Checkpoint{AccountID: "a"}, cooldown: 24 * time.Hour, want: false},
		{name: "23h ago", checkpoint: Checkpoint{LastSuccess: now.Add(-23 * time.Hour)}, cooldown: 24 * time.Hour, want: true},
		{name: "exactly cooldown", checkpoint: Checkpoint{LastSuccess: now.Add(-24 * time.Hour)}, cooldown: 24 * time.Hour, want: false},
		{name: "25h ago", checkpoint: Checkpoint{LastSuccess: now.Add(-25 * time.Hour)}, cooldown: 24 * time.Hour, want: false},
		{name: "zero cooldown", checkpoint: Checkpoint{LastSuccess: now}, cooldown: 0, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.checkpoint.Gated(now, tc.cooldown))
		})
	}
}

func TestCheckpointRemaining(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	c := Checkpoint{LastSuccess: now.Add(-(22*time.Hour + 30*time.Minute))}

	assert.Equal(t, "1h 30m", c.Remaining(now, 24*time.Hour))
	assert.Equal(t, "0h 0m", c.Remaining(now.Add(48*time.Hour), 24*time.Hour))
}

func TestCheckpointUnixMilliRoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 14, 12, 0, 0, 123_000_000, time.UTC)
	c := Checkpoint{AccountID: "acc-1", LastSuccess: at}

	got := CheckpointFromUnixMilli("acc-1", c.UnixMilli())
	assert.True(t, at.Equal(got.LastSuccess))
	assert.Equal(t, int64(0), Checkpoint{}.UnixMilli())
	assert.True(t, CheckpointFromUnixMilli("acc-1", 0).LastSuccess.IsZero())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcde****vwxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "*****", MaskToken("short"))
	assert.Equal(t, "", MaskToken(""))
}

func TestAssignProxiesRoundRobin(t *testing.T) {
	accounts := []Account{{ID: "1"}, {ID: "2"}, {ID: "3", Proxy: "http://fixed:1"}, {ID: "4"}}

	got := AssignProxies(accounts, []string{"http://p1:8080", "http://p2:8080"})

	assert.Equal(t, "http://p1:8080", got[0].Proxy)
	assert.Equal(t, "http://p2:8080", got[1].Proxy)
	assert.Equal(t, "http://fixed:1", got[2].Proxy)
	assert.Equal(t, "http://p2:8080", got[3].Proxy)
	assert.Empty(t, accounts[0].Proxy)
}

func TestAccountValidate(t *testing.T) {
	require.NoError(t, Account{ID: "a", SessionToken: "tok"}.Validate())
	assert.ErrorContains(t, Account{SessionToken: "tok"}.Validate(), "id is required")
	assert.ErrorContains(t, Account{ID: "a"}.Validate(), "session token is required")
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(fmt.Errorf("redirected: %w", ErrAuthExpired)))
	assert.False(t, IsRetryable(ErrNothingToDo))
	assert.True(t, IsRetryable(errors.New("selector not found")))
}
