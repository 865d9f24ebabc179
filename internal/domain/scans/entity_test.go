package scans

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRecordOutcome(t *testing.T) {
	var nilRec *ScanRecord
	assert.Equal(t, OutcomeNoTasks, nilRec.Outcome())
	assert.Equal(t, OutcomeNoTasks, (&ScanRecord{Results: []TaskResult{}}).Outcome())

	ok := TaskResult{Succeeded: true}
	bad := TaskResult{Succeeded: false}
	assert.Equal(t, OutcomeCompleted, (&ScanRecord{Results: []TaskResult{ok, ok}}).Outcome())
	assert.Equal(t, OutcomePartial, (&ScanRecord{Results: []TaskResult{ok, bad}}).Outcome())
	assert.Equal(t, OutcomeFailed, (&ScanRecord{Results: []TaskResult{bad, bad}}).Outcome())
}

func TestScanRecordEmptyResultsEncodeAsArray(t *testing.T) {
	b, err := json.Marshal(ScanRecord{Query: "q", Results: []TaskResult{}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"results":[]`)
}

func TestAttemptSucceeded(t *testing.T) {
	assert.True(t, Attempt{ExitCode: 0}.Succeeded())
	assert.False(t, Attempt{ExitCode: 1}.Succeeded())
	assert.False(t, Attempt{Fault: "timed out"}.Succeeded())
}

func TestOutcomeMessage(t *testing.T) {
	assert.Equal(t, "No valid security tasks found.", OutcomeNoTasks.Message())
	assert.Equal(t, "All scans completed successfully.", OutcomeCompleted.Message())
	assert.Equal(t, "Some scans failed.", OutcomePartial.Message())
	assert.Equal(t, "All scans failed.", OutcomeFailed.Message())
}

func TestToolKnown(t *testing.T) {
	for _, tool := range Tools {
		assert.True(t, tool.Known())
	}
	assert.False(t, Tool("nikto").Known())
}
