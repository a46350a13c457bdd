// Package views computes the aggregates shown alongside analysis and
// watchlist listings. Everything here is a pure function of its input.
package views

import (
	"math"
	"strings"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
)

// RecentLimit is how many analyses the dashboard shows.
const RecentLimit = 10

// VeryHighVolume is the volume status counted as a volume spike.
const VeryHighVolume = "VERY_HIGH"

// DirectionCount tallies BUY and SELL recommendations.
type DirectionCount struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
}

// DirectionCounts counts BUY and SELL analyses. HOLD and WAIT are ignored.
func DirectionCounts(analyses []models.Analysis) DirectionCount {
	var c DirectionCount
	for _, a := range analyses {
		switch a.Direction {
		case models.DirectionBuy:
			c.Buy++
		case models.DirectionSell:
			c.Sell++
		}
	}
	return c
}

// AverageConfidence is the mean confidence rounded to a whole number.
// Unscored analyses count as normalize.DefaultConfidence. An empty list
// averages to 0.
func AverageConfidence(analyses []models.Analysis) int {
	if len(analyses) == 0 {
		return 0
	}
	sum := 0
	for _, a := range analyses {
		score := a.ConfidenceScore
		if score == 0 {
			score = normalize.DefaultConfidence
		}
		sum += score
	}
	return int(math.Round(float64(sum) / float64(len(analyses))))
}

// CountVolumeStatus counts results whose volume_status equals status.
func CountVolumeStatus(results []models.AnalysisView, status string) int {
	n := 0
	for _, r := range results {
		if s, _ := r.Extras["volume_status"].(string); s == status {
			n++
		}
	}
	return n
}

// SentimentCount tallies positive and negative news signals.
type SentimentCount struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// SentimentCounts counts sentiments containing "Positive" or "Negative",
// so "Very Positive" counts as positive.
func SentimentCounts(results []models.AnalysisView) SentimentCount {
	var c SentimentCount
	for _, r := range results {
		s := Sentiment(r)
		if strings.Contains(s, "Positive") {
			c.Positive++
		}
		if strings.Contains(s, "Negative") {
			c.Negative++
		}
	}
	return c
}

// Sentiment returns the news sentiment of r. Stored records carry no
// extras, so it falls back to the first chart pattern of a news analysis.
func Sentiment(r models.AnalysisView) string {
	if s, ok := r.Extras["sentiment"].(string); ok {
		return s
	}
	if r.Type == models.AnalysisTypeNewsSentiment && len(r.ChartPatterns) > 0 {
		return r.ChartPatterns[0]
	}
	return ""
}

// CategoryCount tallies value screening results.
type CategoryCount struct {
	Underpriced int `json:"underpriced"`
	Overpriced  int `json:"overpriced"`
}

// CategoryCounts counts screening results by valuation category.
func CategoryCounts(results []models.AnalysisView) CategoryCount {
	var c CategoryCount
	for _, r := range results {
		switch r.Extras["category"] {
		case normalize.CategoryUnderpriced:
			c.Underpriced++
		case normalize.CategoryOverpriced:
			c.Overpriced++
		}
	}
	return c
}

// IsCrypto reports whether symbol looks like a crypto pair. Any symbol of
// five characters or fewer matches, so short stock tickers such as TCS are
// classified as crypto too.
func IsCrypto(symbol string) bool {
	return strings.Contains(symbol, "/") || len(symbol) <= 5
}

// AssetClassSplit holds the stock and crypto tabs of a result list. A short
// ticker without "/" appears in both.
type AssetClassSplit[T any] struct {
	Stocks []T `json:"stocks"`
	Crypto []T `json:"crypto"`
}

// SplitByAssetClass partitions items by symbol. Stocks are symbols without
// "/", crypto is decided by IsCrypto.
func SplitByAssetClass[T any](items []T, symbol func(T) string) AssetClassSplit[T] {
	split := AssetClassSplit[T]{Stocks: []T{}, Crypto: []T{}}
	for _, item := range items {
		s := symbol(item)
		if !strings.Contains(s, "/") {
			split.Stocks = append(split.Stocks, item)
		}
		if IsCrypto(s) {
			split.Crypto = append(split.Crypto, item)
		}
	}
	return split
}

// AnalysisSymbol selects the symbol of an analysis for SplitByAssetClass.
func AnalysisSymbol(a models.Analysis) string { return a.AssetSymbol }

// ViewSymbol selects the symbol of a pipeline result for SplitByAssetClass.
func ViewSymbol(v models.AnalysisView) string { return v.AssetSymbol }

// SearchWatchlist keeps entries whose symbol or name contains term,
// ignoring case. An empty term keeps everything.
func SearchWatchlist(items []models.Watchlist, term string) []models.Watchlist {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Watchlist, 0, len(items))
	for _, item := range items {
		if term == "" ||
			strings.Contains(strings.ToLower(item.AssetSymbol), term) ||
			strings.Contains(strings.ToLower(item.AssetName), term) {
			out = append(out, item)
		}
	}
	return out
}

// WatchlistCount tallies watchlist entries by asset type.
type WatchlistCount struct {
	Total  int `json:"total"`
	Stock  int `json:"stock"`
	Crypto int `json:"crypto"`
}

// WatchlistTypeCounts counts entries by asset type.
func WatchlistTypeCounts(items []models.Watchlist) WatchlistCount {
	c := WatchlistCount{Total: len(items)}
	for _, item := range items {
		switch item.AssetType {
		case models.AssetTypeStock:
			c.Stock++
		case models.AssetTypeCrypto:
			c.Crypto++
		}
	}
	return c
}

// AnalysisStats summarizes a list of analyses.
type AnalysisStats struct {
	Total             int                              `json:"total"`
	Directions        DirectionCount                   `json:"directions"`
	AverageConfidence int                              `json:"average_confidence"`
	AssetClasses      AssetClassSplit[models.Analysis] `json:"-"`
	StockCount        int                              `json:"stock_count"`
	CryptoCount       int                              `json:"crypto_count"`
	Tags              map[string]int                   `json:"tags"`
}

// Stats computes the summary of analyses.
func Stats(analyses []models.Analysis) AnalysisStats {
	split := SplitByAssetClass(analyses, AnalysisSymbol)
	return AnalysisStats{
		Total:             len(analyses),
		Directions:        DirectionCounts(analyses),
		AverageConfidence: AverageConfidence(analyses),
		AssetClasses:      split,
		StockCount:        len(split.Stocks),
		CryptoCount:       len(split.Crypto),
		Tags:              TagCounts(analyses),
	}
}

// TagCounts counts how many analyses carry each chart pattern tag.
func TagCounts(analyses []models.Analysis) map[string]int {
	counts := make(map[string]int)
	for _, a := range analyses {
		for _, tag := range a.ChartPatterns {
			if tag = strings.TrimSpace(tag); tag != "" {
				counts[tag]++
			}
		}
	}
	return counts
}

// ResultSummary summarizes a freshly produced batch of pipeline results.
type ResultSummary struct {
	Total             int            `json:"total"`
	Directions        DirectionCount `json:"directions"`
	AverageConfidence int            `json:"average_confidence"`
	VeryHighVolume    int            `json:"very_high_volume"`
	Sentiments        SentimentCount `json:"sentiments"`
	Categories        CategoryCount  `json:"categories"`
}

// Summarize computes the stats strip shown above scan results.
func Summarize(results []models.AnalysisView) ResultSummary {
	analyses := make([]models.Analysis, len(results))
	for i, r := range results {
		analyses[i] = r.Analysis
	}
	return ResultSummary{
		Total:             len(results),
		Directions:        DirectionCounts(analyses),
		AverageConfidence: AverageConfidence(analyses),
		VeryHighVolume:    CountVolumeStatus(results, VeryHighVolume),
		Sentiments:        SentimentCounts(results),
		Categories:        CategoryCounts(results),
	}
}

// Dashboard is the landing page summary for one user.
type Dashboard struct {
	Greeting       string            `json:"greeting"`
	RecentAnalyses []models.Analysis `json:"recent_analyses"`
	AnalysesCount  int               `json:"analyses_count"`
	WatchlistCount int               `json:"watchlist_count"`
}

// BuildDashboard assembles the dashboard. recent must already be sorted
// newest first; only the first RecentLimit entries are kept.
func BuildDashboard(user models.User, recent []models.Analysis, watchlist []models.Watchlist) Dashboard {
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	if recent == nil {
		recent = []models.Analysis{}
	}
	return Dashboard{
		Greeting:       "Welcome back, " + user.FirstName(),
		RecentAnalyses: recent,
		AnalysesCount:  len(recent),
		WatchlistCount: len(watchlist),
	}
}
