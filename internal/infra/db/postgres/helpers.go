package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// encodeResults serialises results as a JSON array, never null
func encodeResults(rs []domain.TaskResult) ([]byte, error) {
	if rs == nil {
		rs = []domain.TaskResult{}
	}
	return json.Marshal(rs)
}

func decodeResults(raw []byte) ([]domain.TaskResult, error) {
	rs := []domain.TaskResult{}
	if len(raw) == 0 {
		return rs, nil
	}
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return rs, nil
}

// triggeredAt parses the record timestamp; unparsable falls back to now
func triggeredAt(ts string) time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

func countSucceeded(rs []domain.TaskResult) int {
	n := 0
	for _, r := range rs {
		if r.Succeeded {
			n++
		}
	}
	return n
}
