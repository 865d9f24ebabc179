package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func sampleRecord(query string) *domain.ScanRecord {
	return &domain.ScanRecord{
		ID:        "5f1c0a52-5d6c-4d3e-9f35-0c1b2f4d9a11",
		Query:     query,
		Timestamp: "2026-10-15T09:30:00Z",
		Results: []domain.TaskResult{{
			TaskID:    1,
			Label:     "Nmap Scan",
			Tool:      domain.ToolNmap,
			Output:    "80/tcp open http",
			Succeeded: true,
			Findings:  1,
		}},
	}
}

func TestFileStoreLatestWithoutRecord(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "security_scan_results.json"))
	_, err := s.Latest(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNoRecord))
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	p := filepath.Join(t.TempDir(), "security_scan_results.json")
	s := NewFileStore(p)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRecord("open ports a.test")))
	require.NoError(t, s.Save(ctx, sampleRecord("open ports b.test")))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "open ports b.test", got.Query)
	require.Len(t, got.Results, 1)
	assert.Equal(t, domain.ToolNmap, got.Results[0].Tool)

	// tidak ada file temp yang tertinggal
	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, p, s.Location())
}

func TestFileStoreEncodesEmptyResultsAsArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	s := NewFileStore(p)
	rec := sampleRecord("hello")
	rec.Results = nil

	require.NoError(t, s.Save(context.Background(), rec))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"results": []`)
}

func TestFileStoreSaveFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewFileStore(filepath.Join(blocker, "out.json"))
	err := s.Save(context.Background(), sampleRecord("q"))
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

func TestFileStoreCorruptDocument(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))

	_, err := NewFileStore(p).Latest(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoRecord))
}

func TestLogFileAppendReadReset(t *testing.T) {
	p := filepath.Join(t.TempDir(), "security_scan_results.log")
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	l := NewLogFile(p).WithClock(func() time.Time { return at })
	ctx := context.Background()

	text, err := l.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, l.Append(ctx, "Starting security scan for query: 'open ports x'"))
	require.NoError(t, l.Append(ctx, "Error executing Nmap Scan: boom\nsecond line"))

	text, err = l.Read(ctx)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	assert.Equal(t, []string{
		"[2026-10-15 09:30:05] Starting security scan for query: 'open ports x'",
		"[2026-10-15 09:30:05] Error executing Nmap Scan: boom | second line",
	}, lines)

	require.NoError(t, l.Reset(ctx))
	text, err = l.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	// reset dua kali tetap aman
	require.NoError(t, l.Reset(ctx))
}

func TestLogFileAppendFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := NewLogFile(filepath.Join(blocker, "x.log")).Append(context.Background(), "line")
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

func TestArchiveKeys(t *testing.T) {
	assert.Equal(t, "latest.json", RecordKey(""))
	assert.Equal(t, "scans/latest.json", RecordKey("scans"))
	assert.Equal(t, "scans/latest.json", RecordKey("/scans/"))
	assert.Equal(t, "a/b/latest.log", LogKey("a/b"))
}

func TestNewArchiveRequiresBucket(t *testing.T) {
	_, err := NewArchive(context.Background(), MinioOptions{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
