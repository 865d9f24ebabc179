package scans

import (
	"context"
	"time"
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// RetryPolicy bounds a single task's execution.
type RetryPolicy struct {
	Timeout     time.Duration // per attempt
	MaxAttempts int           // total, including the first
	Backoff     time.Duration // fixed wait between attempts
	OutputLimit int           // characters kept in TaskResult.Output
}

// MaxOutputLimit caps TaskResult.Output regardless of configuration.
const MaxOutputLimit = 500

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:     300 * time.Second,
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
		OutputLimit: MaxOutputLimit,
	}
}

// TaskBudget is the longest a single task can take: every attempt runs to
// its timeout with a backoff between each pair.
func (p RetryPolicy) TaskBudget() time.Duration {
	n := p.MaxAttempts
	if n < 1 {
		n = 1
	}
	return time.Duration(n)*p.Timeout + time.Duration(n-1)*p.Backoff
}

type attemptState int

const (
	stateAttempt attemptState = iota
	stateRetry
	stateSuccess
	stateExhausted
)

// ToolInvoker runs one task through the Process port:
// Attempt -> Success | Retry -> Attempt | Exhausted.
type ToolInvoker struct {
	Process  domain.Process
	Policy   RetryPolicy
	Commands domain.CommandOptions
	Metrics  *Metrics
	Logger   *zerolog.Logger
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

var _ domain.Invoker = (*ToolInvoker)(nil)

// Command returns the argument vector the task will run with.
func (inv *ToolInvoker) Command(task domain.Task) (domain.Command, error) {
	return domain.BuildCommand(task, inv.Commands)
}

// Invoke never returns an error: faults and non-zero exits end up in the
// result with Succeeded=false. observe sees each attempt as it finishes.
func (inv *ToolInvoker) Invoke(ctx context.Context, task domain.Task, observe func(domain.AttemptEvent)) domain.TaskResult {
	start := time.Now()
	result := domain.TaskResult{
		TaskID:   task.ID,
		Label:    task.Label,
		Tool:     task.Tool,
		Attempts: []domain.Attempt{},
	}

	cmd, err := inv.Command(task)
	if err != nil {
		// tool lokal tidak dikenal, tidak ada proses yang dijalankan
		result.Output = truncate(err.Error(), inv.outputLimit())
		inv.Metrics.ObserveTask(task.Tool, false, time.Since(start))
		return result
	}

	policy := inv.newBackOff()
	var (
		last    domain.ProcessResult
		lastErr error
		wait    time.Duration
		state   = stateAttempt
	)
	for state != stateSuccess && state != stateExhausted {
		switch state {
		case stateAttempt:
			last, lastErr = inv.attempt(ctx, cmd)
			a := domain.Attempt{
				Number:     len(result.Attempts) + 1,
				ExitCode:   last.ExitCode,
				DurationMS: last.DurationMS,
			}
			if lastErr != nil {
				a.Fault = lastErr.Error()
			}
			result.Attempts = append(result.Attempts, a)
			inv.Metrics.ObserveAttempt(task.Tool, a)
			inv.logger().Debug().
				Str("tool", string(task.Tool)).
				Int("attempt", a.Number).
				Int("exit_code", a.ExitCode).
				Str("fault", a.Fault).
				Msg("attempt finished")
			state, wait = next(ctx, a, policy)
			if observe != nil {
				observe(domain.AttemptEvent{Attempt: a, Retry: state == stateRetry})
			}
		case stateRetry:
			if err := inv.sleep(ctx, wait); err != nil {
				state = stateExhausted
				continue
			}
			state = stateAttempt
		}
	}

	out := last.CombinedOutput()
	if out == "" && lastErr != nil {
		out = lastErr.Error()
	}
	result.Findings = domain.ParseFindings(task.Tool, out)
	result.Output = truncate(out, inv.outputLimit())
	result.Succeeded = state == stateSuccess
	result.DurationMS = time.Since(start).Milliseconds()
	inv.Metrics.ObserveTask(task.Tool, result.Succeeded, time.Since(start))
	return result
}

// next is the transition out of an attempt.
func next(ctx context.Context, a domain.Attempt, policy backoff.BackOff) (attemptState, time.Duration) {
	if a.Succeeded() {
		return stateSuccess, 0
	}
	if ctx.Err() != nil {
		return stateExhausted, 0
	}
	d := policy.NextBackOff()
	if d == backoff.Stop {
		return stateExhausted, 0
	}
	return stateRetry, d
}

func (inv *ToolInvoker) attempt(ctx context.Context, cmd domain.Command) (domain.ProcessResult, error) {
	timeout := inv.Policy.Timeout
	if timeout <= 0 {
		// tanpa deadline proses bisa jalan selamanya
		timeout = DefaultRetryPolicy().Timeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return inv.Process.Run(actx, cmd)
}

func (inv *ToolInvoker) outputLimit() int {
	if l := inv.Policy.OutputLimit; l > 0 && l < MaxOutputLimit {
		return l
	}
	return MaxOutputLimit
}

func (inv *ToolInvoker) newBackOff() backoff.BackOff {
	retries := inv.Policy.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(inv.Policy.Backoff), uint64(retries))
}

func (inv *ToolInvoker) sleep(ctx context.Context, d time.Duration) error {
	if inv.Sleep != nil {
		return inv.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (inv *ToolInvoker) logger() *zerolog.Logger {
	if inv.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return inv.Logger
}

// truncate keeps at most limit characters.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
