package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

type step struct {
	res domain.ProcessResult
	err error
}

// scriptedProcess replays steps per binary name; the last step repeats.
type scriptedProcess struct {
	mu      sync.Mutex
	scripts map[string][]step
	calls   []domain.Command
}

func newScriptedProcess() *scriptedProcess {
	return &scriptedProcess{scripts: map[string][]step{}}
}

func (p *scriptedProcess) script(name string, steps ...step) *scriptedProcess {
	p.scripts[name] = steps
	return p
}

func (p *scriptedProcess) Run(ctx context.Context, cmd domain.Command) (domain.ProcessResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Name == cmd.Name {
			n++
		}
	}
	p.calls = append(p.calls, cmd)
	steps := p.scripts[cmd.Name]
	if len(steps) == 0 {
		return domain.ProcessResult{ExitCode: 127}, fmt.Errorf("exec: %q: executable file not found in $PATH", cmd.Name)
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	return steps[n].res, steps[n].err
}

func (p *scriptedProcess) callsTo(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

func exit(code int, stdout string) step {
	return step{res: domain.ProcessResult{ExitCode: code, Stdout: stdout}}
}

func fault(err error) step {
	return step{res: domain.ProcessResult{ExitCode: -1}, err: err}
}

// memStore is an in-memory RecordStore.
type memStore struct {
	rec   *domain.ScanRecord
	saves int
	err   error
}

func (m *memStore) Save(_ context.Context, r *domain.ScanRecord) error {
	if m.err != nil {
		return m.err
	}
	cp := *r
	m.rec = &cp
	m.saves++
	return nil
}

func (m *memStore) Latest(context.Context) (*domain.ScanRecord, error) {
	if m.rec == nil {
		return nil, domain.ErrNoRecord
	}
	return m.rec, nil
}

func (m *memStore) Location() string { return "memory" }

// memLog is an in-memory LogSink.
type memLog struct {
	lines []string
	err   error
}

func (m *memLog) Append(_ context.Context, line string) error {
	if m.err != nil {
		return m.err
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *memLog) Read(context.Context) (string, error) {
	return strings.Join(m.lines, "\n"), nil
}

func (m *memLog) Reset(context.Context) error {
	m.lines = nil
	return m.err
}

type memArchive struct {
	uploads int
	err     error
}

func (a *memArchive) Upload(context.Context, *domain.ScanRecord) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.uploads++
	return "s3://bucket/scans/latest.json", nil
}

var errDiskFull = errors.New("no space left on device")

func noSleep(context.Context, time.Duration) error { return nil }
