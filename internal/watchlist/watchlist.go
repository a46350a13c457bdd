// Package watchlist builds watchlist entries from analysis results.
package watchlist

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
)

// headlineLimit is how much of a news headline is copied into the notes.
const headlineLimit = 100

// Hint carries details of the original scan that are not stored on the
// analysis itself. Zero fields are derived from the analysis.
type Hint struct {
	AssetType    models.AssetType `json:"asset_type,omitempty"`
	CurrentPrice *float64         `json:"current_price,omitempty"`
	Timeframe    string           `json:"timeframe,omitempty"`
}

// FromAnalysis returns the watchlist entry the "add to watchlist" action
// creates for a. The entry targets the analysis take-profit with alerts on.
func FromAnalysis(a models.Analysis, hint Hint) models.Watchlist {
	assetType := hint.AssetType
	if assetType == "" {
		assetType = AssetTypeFor(a.AssetSymbol)
	}

	return models.Watchlist{
		AssetSymbol:  strings.ToUpper(a.AssetSymbol),
		AssetName:    a.AssetName,
		AssetType:    assetType,
		TargetPrice:  a.TakeProfit,
		AlertEnabled: true,
		Notes:        Notes(a, assetType, hint),
	}
}

// AssetTypeFor classifies symbol for a new watchlist entry: pairs such as
// BTC/USD are crypto, everything else is a stock.
func AssetTypeFor(symbol string) models.AssetType {
	if strings.Contains(symbol, "/") {
		return models.AssetTypeCrypto
	}
	return models.AssetTypeStock
}

// Notes describes why a was added.
func Notes(a models.Analysis, assetType models.AssetType, hint Hint) string {
	switch a.Type {
	case models.AnalysisTypeValueScreening:
		return screeningNotes(a, assetType, hint)
	case models.AnalysisTypeAssetScreening:
		return fmt.Sprintf("Top mover - %s signal with %s potential", a.Direction, a.SwingPotential)
	case models.AnalysisTypeNewsSentiment:
		headline := a.NewsHeadline
		if r := []rune(headline); len(r) > headlineLimit {
			headline = string(r[:headlineLimit])
		}
		return fmt.Sprintf("News signal: %s...", headline)
	default:
		return fmt.Sprintf("Chart analysis - %s setup with %d%% confidence", a.Direction, a.ConfidenceScore)
	}
}

func screeningNotes(a models.Analysis, assetType models.AssetType, hint Hint) string {
	category, opportunity := normalize.CategoryOverpriced, normalize.SellOpportunity
	if a.Direction == models.DirectionBuy {
		category, opportunity = normalize.CategoryUnderpriced, normalize.BuyOpportunity
	}

	price := hint.CurrentPrice
	if price == nil {
		price = a.EntryPrice
	}

	timeframe := hint.Timeframe
	if timeframe == "" {
		timeframe = timeframeOf(a.ChartPatterns)
	}

	return fmt.Sprintf("%s - %s at %s%s for %s timeframe.", category, opportunity, currencySymbol(assetType), formatPrice(price), timeframe)
}

// timeframeOf recovers the timeframe from the "<TF>_SETUP" pattern tag.
func timeframeOf(patterns []string) string {
	for _, p := range patterns {
		if tf, ok := strings.CutSuffix(p, "_SETUP"); ok && tf != "" {
			return tf
		}
	}
	return "1D"
}

func currencySymbol(t models.AssetType) string {
	if t == models.AssetTypeStock {
		return "₹"
	}
	return "$"
}

func formatPrice(p *float64) string {
	if p == nil {
		return "0.00"
	}
	return humanize.FormatFloat("#,###.##", *p)
}
