package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// Runner executes scanner binaries on the local host, resolved via PATH.
type Runner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// WaitDelay bounds how long output pipes are drained after a kill.
	WaitDelay time.Duration
}

func NewRunner() *Runner {
	return &Runner{WaitDelay: 2 * time.Second}
}

// Run implements scans.Process. Exit codes are data; failures to start
// the process or a hit deadline come back as errors.
func (r *Runner) Run(ctx context.Context, c domain.Command) (domain.ProcessResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = r.WaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := domain.ProcessResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}

	// deadline lebih dulu: proses yang di-kill juga muncul sebagai ExitError
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s", domain.ErrTimeout, c.Name)
		}
		return res, ctxErr
	}
	if err == nil {
		return res, nil
	}

	// ambil exit code
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	}
	return res, fmt.Errorf("run %s: %w", c.Name, err)
}
