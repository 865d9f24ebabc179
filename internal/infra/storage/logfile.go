package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// LogTimeLayout is the timestamp prefix of every log line.
const LogTimeLayout = "2006-01-02 15:04:05"

// LogFile is an append-only text log, one "[timestamp] message" per line.
type LogFile struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewLogFile(path string) *LogFile {
	return &LogFile{path: path, now: time.Now}
}

// WithClock overrides the timestamp source.
func (l *LogFile) WithClock(now func() time.Time) *LogFile {
	l.now = now
	return l
}

func (l *LogFile) Path() string { return l.path }

func (l *LogFile) Append(_ context.Context, line string) error {
	entry := fmt.Sprintf("[%s] %s\n", l.now().Format(LogTimeLayout), oneLine(line))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("%w: create log dir: %w", domain.ErrPersistence, err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open log %s: %w", domain.ErrPersistence, l.path, err)
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return fmt.Errorf("%w: append log %s: %w", domain.ErrPersistence, l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close log %s: %w", domain.ErrPersistence, l.path, err)
	}
	return nil
}

// Read returns the whole log; a missing file reads as empty.
func (l *LogFile) Read(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Reset removes the log file.
func (l *LogFile) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: reset log %s: %w", domain.ErrPersistence, l.path, err)
	}
	return nil
}

// oneLine keeps multi-line messages (tool errors) on a single log line.
func oneLine(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("\r\n", " | ", "\n", " | ", "\r", " | ").Replace(s)
}

var _ domain.LogSink = (*LogFile)(nil)
