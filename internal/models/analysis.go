package models

import (
	"strings"
	"time"
)

// AnalysisType identifies which pipeline produced an Analysis.
type AnalysisType string

const (
	AnalysisTypeChartImage     AnalysisType = "chart_image"
	AnalysisTypeValueScreening AnalysisType = "value_screening"
	AnalysisTypeAssetScreening AnalysisType = "asset_screening"
	AnalysisTypeNewsSentiment  AnalysisType = "news_sentiment"
)

// Valid reports whether t is a known analysis type.
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisTypeChartImage, AnalysisTypeValueScreening, AnalysisTypeAssetScreening, AnalysisTypeNewsSentiment:
		return true
	}
	return false
}

// Direction is the recommended trade side.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
	DirectionWait Direction = "WAIT"
)

// ParseDirection normalizes raw model output into a Direction. The second
// return value is false for anything outside BUY/SELL/HOLD/WAIT.
func ParseDirection(raw string) (Direction, bool) {
	d := Direction(strings.ToUpper(strings.TrimSpace(raw)))
	switch d {
	case DirectionBuy, DirectionSell, DirectionHold, DirectionWait:
		return d, true
	}
	return "", false
}

// SwingPotential rates how far price may travel in the trade's favor.
type SwingPotential string

const (
	SwingLow    SwingPotential = "LOW"
	SwingMedium SwingPotential = "MEDIUM"
	SwingHigh   SwingPotential = "HIGH"
)

// ParseSwingPotential returns the matching level, falling back to MEDIUM.
func ParseSwingPotential(raw string) SwingPotential {
	switch s := SwingPotential(strings.ToUpper(strings.TrimSpace(raw))); s {
	case SwingLow, SwingMedium, SwingHigh:
		return s
	}
	return SwingMedium
}

// SignalStrength is the model's own rating of the setup.
type SignalStrength string

const (
	SignalVeryStrong SignalStrength = "VERY_STRONG"
	SignalStrong     SignalStrength = "STRONG"
	SignalModerate   SignalStrength = "MODERATE"
	SignalWeak       SignalStrength = "WEAK"
)

// Analysis is a persisted trading recommendation.
type Analysis struct {
	ID                  string         `json:"id"`
	Type                AnalysisType   `json:"type"`
	AssetSymbol         string         `json:"asset_symbol"`
	AssetName           string         `json:"asset_name"`
	Direction           Direction      `json:"direction"`
	EntryPrice          *float64       `json:"entry_price"`
	TakeProfit          *float64       `json:"take_profit"`
	StopLoss            *float64       `json:"stop_loss"`
	RiskRewardRatio     float64        `json:"risk_reward_ratio"`
	ConfidenceScore     int            `json:"confidence_score"` // 0-100
	ForecastReturn      float64        `json:"forecast_return"`  // signed percent
	SwingPotential      SwingPotential `json:"swing_potential"`
	TechnicalIndicators map[string]any `json:"technical_indicators"`
	ChartPatterns       []string       `json:"chart_patterns"`
	ImageURL            string         `json:"image_url,omitempty"`
	NewsHeadline        string         `json:"news_headline,omitempty"`
	CreatedBy           string         `json:"created_by"`
	CreatedDate         time.Time      `json:"created_date"`
}

// AnalysisView is a persisted Analysis plus the display-only fields the
// pipeline derived from the same model response. Extras are never stored.
type AnalysisView struct {
	Analysis
	Extras map[string]any `json:"extras,omitempty"`
}
