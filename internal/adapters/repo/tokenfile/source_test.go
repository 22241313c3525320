package tokenfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/cyclerun/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		line      string
		wantID    domain.AccountID
		wantToken string
		wantErr   bool
	}{
		{name: "valid", line: "alice=harborSession=abc123", wantID: "alice", wantToken: "abc123"},
		{name: "token keeps equals", line: "bob=harborSession=abc==", wantID: "bob", wantToken: "abc=="},
		{name: "surrounding spaces", line: "  carol=harborSession=tok  ", wantID: "carol", wantToken: "tok"},
		{name: "wrong key", line: "dave=session=tok", wantErr: true},
		{name: "missing token", line: "erin=harborSession=", wantErr: true},
		{name: "missing id", line: "=harborSession=tok", wantErr: true},
		{name: "no separator", line: "garbage", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			account, err := ParseLine(tc.line)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidAccountLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, account.ID)
			assert.Equal(t, tc.wantToken, account.SessionToken)
		})
	}
}

func TestParseSkipsMalformedLinesAndLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	input := strings.Join([]string{
		"1=harborSession=tok-1",
		"",
		"broken line",
		"2=harborSession=tok-2",
	}, "\n")

	accounts, err := Parse(strings.NewReader(input), zap.New(core))
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.AccountID("2"), accounts[1].ID)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["line"])
}

func TestParseWithoutValidLines(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("\n\nbad\n"), nil)
	require.ErrorIs(t, err, domain.ErrNoAccounts)
}

func TestSourceAssignsProxiesRoundRobin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.txt")
	proxiesPath := filepath.Join(dir, "proxies.txt")
	require.NoError(t, os.WriteFile(tokenPath, []byte("a=harborSession=1\nb=harborSession=2\nc=harborSession=3\n"), 0o600))
	require.NoError(t, os.WriteFile(proxiesPath, []byte("http://p1:8080\n\nhttp://p2:8080\n"), 0o600))

	source := NewSource(tokenPath, proxiesPath, nil)

	accounts, err := source.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "http://p1:8080", accounts[0].Proxy)
	assert.Equal(t, "http://p2:8080", accounts[1].Proxy)
	assert.Equal(t, "http://p1:8080", accounts[2].Proxy)

	account, err := source.GetByID(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "2", account.SessionToken)

	_, err = source.GetByID(context.Background(), "z")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSourceMissingProxiesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.txt")
	require.NoError(t, os.WriteFile(tokenPath, []byte("a=harborSession=1\n"), 0o600))

	accounts, err := NewSource(tokenPath, filepath.Join(dir, "proxies.txt"), nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].Proxy)
}

func TestSourceMissingTokenFile(t *testing.T) {
	t.Parallel()

	_, err := NewSource(filepath.Join(t.TempDir(), "token.txt"), "", nil).List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "open token file")
}
