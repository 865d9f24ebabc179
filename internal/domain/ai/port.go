package ai

import (
	"context"

	"github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// Client turns a finished ScanRecord into a JSON assessment.
type Client interface {
	Analyze(ctx context.Context, rec *scans.ScanRecord) (string, error)
}
