package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainai "github.com/bryanwahyu/automaton-query/internal/domain/ai"
	"github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func TestAnalyzeReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"advice\":\"patch\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "", srv.URL)
	out, err := c.Analyze(context.Background(), &scans.ScanRecord{Query: "open ports x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"advice":"patch"}`, out)
}

func TestAnalyzeMapsRateLimitToQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", srv.URL)
	_, err := c.Analyze(context.Background(), &scans.ScanRecord{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainai.ErrQuotaExceeded))
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
