package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tradesnap/tradesnap/internal/models"
)

// Defaults applied when the model omits a field.
const (
	DefaultConfidence      = 75
	DefaultChartRiskReward = 2.0
	DefaultScanRiskReward  = 2.5
	DefaultAssetSymbol     = "UNKNOWN"
	DefaultAssetName       = "Unknown Asset"
	NotVisible             = "NOT_VISIBLE"
	DefaultSentiment       = "MODERATE"
)

// ForecastReturn is the percentage move from entry to target in the trade's
// favor. It is 0 when either price is unknown or the direction is neither
// BUY nor SELL.
func ForecastReturn(entry, target *float64, direction models.Direction) float64 {
	if entry == nil || target == nil || *entry == 0 || *target == 0 {
		return 0
	}

	e := decimal.NewFromFloat(*entry)
	t := decimal.NewFromFloat(*target)
	hundred := decimal.NewFromInt(100)

	var pct decimal.Decimal
	switch direction {
	case models.DirectionBuy:
		pct = t.Sub(e).Div(e).Mul(hundred)
	case models.DirectionSell:
		pct = e.Sub(t).Div(e).Mul(hundred)
	default:
		return 0
	}

	f, _ := pct.Round(6).Float64()
	return f
}

// SwingFromSignal maps the model's signal strength onto swing potential.
func SwingFromSignal(strength string) models.SwingPotential {
	switch models.SignalStrength(strength) {
	case models.SignalVeryStrong, models.SignalStrong:
		return models.SwingHigh
	case models.SignalModerate:
		return models.SwingMedium
	case models.SignalWeak:
		return models.SwingLow
	default:
		return models.SwingMedium
	}
}

// FlattenPatterns returns primary followed by secondaries, dropping blanks.
func FlattenPatterns(primary string, secondaries ...string) []string {
	out := make([]string, 0, 1+len(secondaries))
	for _, p := range append([]string{primary}, secondaries...) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Confidence clamps a model score into [0,100]. Zero or missing scores take
// the default.
func Confidence(v float64, ok bool) int {
	if !ok || v == 0 || math.IsNaN(v) {
		return DefaultConfidence
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

// RiskReward returns v, or fallback when v is missing or zero, raised to at
// least minimum.
func RiskReward(v float64, ok bool, fallback, minimum float64) float64 {
	if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	if v < minimum {
		v = minimum
	}
	return v
}
