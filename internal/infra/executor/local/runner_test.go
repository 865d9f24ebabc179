package local

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestRunnerCapturesOutputAndExitCode(t *testing.T) {
	requireBinary(t, "sh")

	res, err := NewRunner().Run(context.Background(), domain.Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunnerZeroExit(t *testing.T) {
	requireBinary(t, "sh")

	res, err := NewRunner().Run(context.Background(), domain.Command{Name: "sh", Args: []string{"-c", "true"}})
	require.NoError(t, err)
	assert.Zero(t, res.ExitCode)
}

func TestRunnerMissingBinaryIsFault(t *testing.T) {
	res, err := NewRunner().Run(context.Background(), domain.Command{Name: "definitely-not-a-scanner-binary"})
	require.Error(t, err)
	assert.Equal(t, 127, res.ExitCode)
	assert.False(t, errors.Is(err, domain.ErrTimeout))
}

func TestRunnerTimeout(t *testing.T) {
	requireBinary(t, "sleep")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewRunner().Run(ctx, domain.Command{Name: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.Less(t, time.Since(start), 4*time.Second)
}
