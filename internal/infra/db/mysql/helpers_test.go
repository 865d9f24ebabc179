package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "partial", stringOrDash("partial"))
}

func TestEncodeResultsNeverNull(t *testing.T) {
	raw, err := encodeResults(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	rs, err := decodeResults(nil)
	require.NoError(t, err)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestResultsRoundTripKeepsOrder(t *testing.T) {
	in := []domain.TaskResult{
		{TaskID: 2, Label: "Gobuster Scan", Tool: domain.ToolGobuster, Succeeded: true},
		{TaskID: 3, Label: "FFUF Fuzzing", Tool: domain.ToolFFUF},
	}
	raw, err := encodeResults(in)
	require.NoError(t, err)

	out, err := decodeResults(raw)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].TaskID)
	assert.Equal(t, domain.ToolFFUF, out[1].Tool)
	assert.Equal(t, 1, countSucceeded(out))
}

func TestDecodeResultsRejectsGarbage(t *testing.T) {
	_, err := decodeResults([]byte("{"))
	assert.Error(t, err)
}

func TestTriggeredAt(t *testing.T) {
	assert.Equal(t, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC), triggeredAt("2026-10-15T16:30:00+07:00"))
	assert.WithinDuration(t, time.Now(), triggeredAt("yesterday"), time.Minute)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "mysql:scan_records", NewRecordRepository(nil).Location())
}
