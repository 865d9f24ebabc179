package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func TestEncodeResultsNeverNull(t *testing.T) {
	raw, err := encodeResults(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestDecodeResults(t *testing.T) {
	rs, err := decodeResults([]byte(`[{"task_id":4,"label":"SQLMap Scan","tool":"sqlmap","succeeded":false}]`))
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, domain.ToolSQLMap, rs[0].Tool)
	assert.Equal(t, 0, countSucceeded(rs))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "postgres:scan_records", NewRecordRepository(nil).Location())
}
