package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/models"
)

func steppingClock() func() time.Time {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func TestMemoryAnalysesLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().WithClock(steppingClock())

	first, err := m.CreateAnalysis(ctx, models.Analysis{AssetSymbol: "INFY", CreatedBy: "a@x.com", ConfidenceScore: 60, Type: models.AnalysisTypeChartImage})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedDate.IsZero())

	_, err = m.CreateAnalysis(ctx, models.Analysis{AssetSymbol: "TCS", CreatedBy: "a@x.com", ConfidenceScore: 90, Type: models.AnalysisTypeNewsSentiment})
	require.NoError(t, err)
	_, err = m.CreateAnalysis(ctx, models.Analysis{AssetSymbol: "BTC/USD", CreatedBy: "b@x.com", ConfidenceScore: 70})
	require.NoError(t, err)

	got, err := m.ListAnalyses(ctx, models.AnalysisFilter{CreatedBy: "a@x.com"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TCS", got[0].AssetSymbol, "newest first by default")

	got, err = m.ListAnalyses(ctx, models.AnalysisFilter{Sort: "-confidence_score", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"TCS", "BTC/USD"}, []string{got[0].AssetSymbol, got[1].AssetSymbol})

	got, err = m.ListAnalyses(ctx, models.AnalysisFilter{Type: models.AnalysisTypeChartImage})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = m.ListAnalyses(ctx, models.AnalysisFilter{Sort: "-password"})
	assert.Error(t, err)

	require.NoError(t, m.DeleteAnalysis(ctx, first.ID))
	_, err = m.GetAnalysis(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteAnalysis(ctx, first.ID), ErrNotFound)
}

func TestMemoryListIsStableForEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return fixed })

	for _, s := range []string{"A", "B", "C"} {
		_, err := m.CreateAnalysis(ctx, models.Analysis{AssetSymbol: s})
		require.NoError(t, err)
	}

	got, err := m.ListAnalyses(ctx, models.AnalysisFilter{Sort: models.SortCreatedDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].AssetSymbol, got[1].AssetSymbol, got[2].AssetSymbol})

	got, err = m.ListAnalyses(ctx, models.AnalysisFilter{})
	require.NoError(t, err)
	assert.Equal(t, "C", got[0].AssetSymbol)
}

func TestMemoryCreateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().CreateAnalysis(ctx, models.Analysis{AssetSymbol: "A"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryWatchlist(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().WithClock(steppingClock())

	for _, w := range []models.Watchlist{
		{AssetSymbol: "SBIN", AssetType: models.AssetTypeStock, CreatedBy: "a@x.com"},
		{AssetSymbol: "ADA/USD", AssetType: models.AssetTypeCrypto, CreatedBy: "a@x.com"},
		{AssetSymbol: "ITC", AssetType: models.AssetTypeStock, CreatedBy: "b@x.com"},
	} {
		_, err := m.CreateWatchlist(ctx, w)
		require.NoError(t, err)
	}

	got, err := m.ListWatchlist(ctx, models.WatchlistFilter{CreatedBy: "a@x.com", Sort: "asset_symbol"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ADA/USD", got[0].AssetSymbol)

	got, err = m.ListWatchlist(ctx, models.WatchlistFilter{AssetType: models.AssetTypeStock})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = m.ListWatchlist(ctx, models.WatchlistFilter{Sort: "-confidence_score"})
	assert.Error(t, err)

	require.NoError(t, m.DeleteWatchlist(ctx, got[0].ID))
	_, err = m.GetWatchlist(ctx, got[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.CreateUser(ctx, models.User{Email: " Trader@Example.com ", FullName: "Sam Trader"})
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", u.Email)

	_, err = m.CreateUser(ctx, models.User{Email: "TRADER@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	byEmail, err := m.GetUserByEmail(ctx, "trader@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Trader", byID.FullName)

	_, err = m.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInferenceLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	latency := func(ms int) *int { return &ms }
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "openai", Operation: "chart_analysis", Status: "success", TokensUsed: 100, LatencyMs: latency(200), UserID: "u1"}))
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "openai", Operation: "top_movers", Status: "error", LatencyMs: latency(400), UserID: "u2"}))
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "gemini", Operation: "news_signals", Status: "success", TokensUsed: 50, LatencyMs: latency(600), UserID: "u1"}))

	logs, err := m.ListInferenceLogs(ctx, models.InferenceLogQuery{Provider: "openai"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "top_movers", logs[0].Operation, "newest first")

	logs, err = m.ListInferenceLogs(ctx, models.InferenceLogQuery{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "gemini", logs[0].Provider)

	logs, err = m.ListInferenceLogs(ctx, models.InferenceLogQuery{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, logs)

	stats, err := m.InferenceLogStats(ctx, models.InferenceLogQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCalls)
	assert.Equal(t, int64(150), stats.TotalTokens)
	assert.Equal(t, 2, stats.SuccessfulCalls)
	assert.Equal(t, 1, stats.FailedCalls)
	assert.InDelta(t, 400, stats.AvgLatencyMs, 0.001)
	require.Len(t, stats.ByOperation, 3)
	assert.Equal(t, models.OperationStats{Calls: 1, FailedCalls: 1, AvgLatencyMs: 400}, stats.ByOperation["top_movers"])

	stats, err = m.InferenceLogStats(ctx, models.InferenceLogQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCalls)
	assert.Equal(t, 0, stats.FailedCalls)
	assert.InDelta(t, 400, stats.AvgLatencyMs, 0.001)
	assert.NotContains(t, stats.ByOperation, "top_movers")
}

func TestMemoryDeleteInferenceLogsBefore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "openai", CreatedAt: old}))
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "gemini", CreatedAt: recent}))

	deleted, err := m.DeleteInferenceLogsBefore(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	logs, err := m.ListInferenceLogs(ctx, models.InferenceLogQuery{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "gemini", logs[0].Provider)

	// IDs stay unique after deletions.
	require.NoError(t, m.CreateInferenceLog(ctx, models.InferenceLog{Provider: "anthropic"}))
	logs, err = m.ListInferenceLogs(ctx, models.InferenceLogQuery{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.NotEqual(t, logs[0].ID, logs[1].ID)
}
