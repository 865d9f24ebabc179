package ai

import (
	"context"

	"github.com/bryanwahyu/automaton-query/internal/domain/ai"
	"github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

type Service struct {
	client ai.Client
	store  scans.RecordStore
}

func NewService(client ai.Client, store scans.RecordStore) *Service {
	return &Service{client: client, store: store}
}

// AnalyzeLatest ambil record terakhir lalu kirim ke analyst
func (s *Service) AnalyzeLatest(ctx context.Context) (string, error) {
	if s == nil || s.client == nil {
		return "", ai.ErrNotConfigured
	}
	rec, err := s.store.Latest(ctx)
	if err != nil {
		return "", err
	}
	return s.client.Analyze(ctx, rec)
}
