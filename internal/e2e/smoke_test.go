package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeFixtures(home))

	_, stderr, err := runCyclerun(t, binaryPath, home, "run", "--once")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stderr, "cycle finished")

	stdout, stderr, err := runCyclerun(t, binaryPath, home, "status", "--account", "acc-1")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Primary (acc-1)")
	assert.Contains(t, stdout, "last success")

	stdout, stderr, err = runCyclerun(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "cyclerun-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cyclerun")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build cyclerun binary: %s", string(output))
	return binaryPath
}

func runCyclerun(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeFixtures(home string) error {
	configDir := filepath.Join(home, ".config", "cyclerun")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	accounts := `version = 1

[[accounts]]
id = "acc-1"
name = "Primary"
session_token = "session-token-primary"
`
	if err := os.WriteFile(filepath.Join(configDir, "accounts.toml"), []byte(accounts), 0o600); err != nil {
		return err
	}

	config := `[action]
kind = "exec"

[action.exec]
command = ["sh", "-c", "exit 0"]
`
	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600)
}
