package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
)

func analysis(symbol string, direction models.Direction, confidence int) models.Analysis {
	return models.Analysis{AssetSymbol: symbol, Direction: direction, ConfidenceScore: confidence}
}

func TestIsCrypto(t *testing.T) {
	tests := map[string]bool{
		"BTC/USD":    true,
		"ETH/USDT":   true,
		"RELIANCE":   false,
		"HDFCBANK":   false,
		"TCS":        true,
		"INFY":       true,
		"SBIN":       true,
		"BAJFINANCE": false,
	}
	for symbol, want := range tests {
		assert.Equal(t, want, IsCrypto(symbol), symbol)
	}
}

func TestSplitByAssetClassOverlapsShortTickers(t *testing.T) {
	items := []models.Analysis{
		analysis("BTC/USD", models.DirectionBuy, 80),
		analysis("RELIANCE", models.DirectionSell, 70),
		analysis("TCS", models.DirectionBuy, 60),
	}

	split := SplitByAssetClass(items, AnalysisSymbol)

	stocks := make([]string, 0)
	for _, a := range split.Stocks {
		stocks = append(stocks, a.AssetSymbol)
	}
	crypto := make([]string, 0)
	for _, a := range split.Crypto {
		crypto = append(crypto, a.AssetSymbol)
	}

	assert.Equal(t, []string{"RELIANCE", "TCS"}, stocks)
	assert.Equal(t, []string{"BTC/USD", "TCS"}, crypto)
}

func TestSplitByAssetClassEmpty(t *testing.T) {
	split := SplitByAssetClass(nil, ViewSymbol)
	assert.NotNil(t, split.Stocks)
	assert.NotNil(t, split.Crypto)
}

func TestDirectionCountsAndAverageConfidence(t *testing.T) {
	items := []models.Analysis{
		analysis("A", models.DirectionBuy, 80),
		analysis("B", models.DirectionBuy, 0),
		analysis("C", models.DirectionSell, 91),
		analysis("D", models.DirectionHold, 60),
	}

	assert.Equal(t, DirectionCount{Buy: 2, Sell: 1}, DirectionCounts(items))
	// (80 + 75 + 91 + 60) / 4 = 76.5
	assert.Equal(t, 77, AverageConfidence(items))
	assert.Equal(t, 0, AverageConfidence(nil))
}

func TestCountsOverPipelineResults(t *testing.T) {
	results := []models.AnalysisView{
		{Analysis: analysis("A", models.DirectionBuy, 70), Extras: map[string]any{"volume_status": "VERY_HIGH", "sentiment": "Very Positive"}},
		{Analysis: analysis("B", models.DirectionSell, 70), Extras: map[string]any{"volume_status": "HIGH", "sentiment": "Negative"}},
		{Analysis: analysis("C", models.DirectionBuy, 70), Extras: map[string]any{"volume_status": "VERY_HIGH", "category": normalize.CategoryUnderpriced}},
		{Analysis: models.Analysis{Type: models.AnalysisTypeNewsSentiment, ChartPatterns: []string{"Positive"}}},
		{Analysis: analysis("E", models.DirectionSell, 70), Extras: map[string]any{"category": normalize.CategoryOverpriced}},
	}

	assert.Equal(t, 2, CountVolumeStatus(results, VeryHighVolume))
	assert.Equal(t, SentimentCount{Positive: 2, Negative: 1}, SentimentCounts(results))
	assert.Equal(t, CategoryCount{Underpriced: 1, Overpriced: 1}, CategoryCounts(results))

	summary := Summarize(results)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, DirectionCount{Buy: 2, Sell: 2}, summary.Directions)
	assert.Equal(t, 2, summary.VeryHighVolume)
}

func TestSearchWatchlist(t *testing.T) {
	items := []models.Watchlist{
		{AssetSymbol: "RELIANCE", AssetName: "Reliance Industries"},
		{AssetSymbol: "BTC/USD", AssetName: "Bitcoin"},
		{AssetSymbol: "INFY", AssetName: "Infosys"},
	}

	got := SearchWatchlist(items, "bit")
	require.Len(t, got, 1)
	assert.Equal(t, "BTC/USD", got[0].AssetSymbol)

	got = SearchWatchlist(items, "  rel ")
	require.Len(t, got, 1)
	assert.Equal(t, "RELIANCE", got[0].AssetSymbol)

	assert.Len(t, SearchWatchlist(items, ""), 3)
	assert.Empty(t, SearchWatchlist(items, "doge"))
}

func TestWatchlistTypeCounts(t *testing.T) {
	items := []models.Watchlist{
		{AssetType: models.AssetTypeStock},
		{AssetType: models.AssetTypeCrypto},
		{AssetType: models.AssetTypeStock},
	}
	assert.Equal(t, WatchlistCount{Total: 3, Stock: 2, Crypto: 1}, WatchlistTypeCounts(items))
}

func TestStats(t *testing.T) {
	stats := Stats([]models.Analysis{
		analysis("BTC/USD", models.DirectionBuy, 90),
		analysis("RELIANCE", models.DirectionSell, 70),
	})
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 80, stats.AverageConfidence)
	assert.Equal(t, 1, stats.StockCount)
	assert.Equal(t, 1, stats.CryptoCount)
}

func TestTagCounts(t *testing.T) {
	a := analysis("INFY", models.DirectionBuy, 60)
	a.ChartPatterns = []string{"UNDERVALUED", "1D_SETUP"}
	b := analysis("ITC", models.DirectionSell, 60)
	b.ChartPatterns = []string{"OVERVALUED", "1D_SETUP", " "}

	assert.Equal(t, map[string]int{"UNDERVALUED": 1, "OVERVALUED": 1, "1D_SETUP": 2}, TagCounts([]models.Analysis{a, b}))
	assert.Empty(t, TagCounts(nil))
}

func TestBuildDashboard(t *testing.T) {
	recent := make([]models.Analysis, 12)
	for i := range recent {
		recent[i] = analysis("A", models.DirectionBuy, 70)
	}

	d := BuildDashboard(models.User{FullName: "Asha Rao"}, recent, []models.Watchlist{{}, {}})
	assert.Equal(t, "Welcome back, Asha", d.Greeting)
	assert.Len(t, d.RecentAnalyses, RecentLimit)
	assert.Equal(t, RecentLimit, d.AnalysesCount)
	assert.Equal(t, 2, d.WatchlistCount)

	empty := BuildDashboard(models.User{}, nil, nil)
	assert.Equal(t, "Welcome back, Trader", empty.Greeting)
	assert.NotNil(t, empty.RecentAnalyses)
}
