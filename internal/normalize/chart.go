package normalize

import (
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/schema"
)

// Chart normalizes a chart-image analysis. Both asset_identification and
// trading_recommendation must be present objects.
func Chart(raw map[string]any, minRR float64, imageURL string) Result {
	asset, hasAsset := object(raw, schema.KeyAssetIdentification)
	plan, hasPlan := object(raw, schema.KeyTradingRecommendation)

	var missing []string
	if !hasAsset {
		missing = append(missing, schema.KeyAssetIdentification)
	}
	if !hasPlan {
		missing = append(missing, schema.KeyTradingRecommendation)
	}
	if len(missing) > 0 {
		return Invalid(&ValidationError{Missing: missing, Message: IncompleteChartMessage})
	}

	patterns, _ := object(raw, "technical_patterns")
	indicators, _ := object(raw, "technical_indicators")
	volume, _ := object(indicators, "volume_analysis")
	confidence, _ := object(raw, "confidence_assessment")

	direction, ok := models.ParseDirection(text(plan, "direction"))
	if !ok {
		direction = models.DirectionHold
	}

	entry := price(plan, "entry_price")
	target := price(plan, "take_profit_1")
	rr, rrOK := number(plan, "risk_reward_ratio")
	score, scoreOK := number(confidence, "overall_confidence")
	strength := text(confidence, "signal_strength")

	var secondaries []string
	if extra, ok := list(patterns, "additional_patterns"); ok {
		for _, item := range extra {
			if p, ok := item.(map[string]any); ok {
				secondaries = append(secondaries, text(p, "pattern_name"))
			}
		}
	}

	var rsi any
	if v, ok := number(indicators, "rsi_reading"); ok && v != 0 {
		rsi = v
	}

	analysis := models.Analysis{
		Type:            models.AnalysisTypeChartImage,
		AssetSymbol:     textOr(asset, "asset_symbol", DefaultAssetSymbol),
		AssetName:       textOr(asset, "asset_name", DefaultAssetName),
		Direction:       direction,
		EntryPrice:      entry,
		TakeProfit:      target,
		StopLoss:        price(plan, "stop_loss"),
		RiskRewardRatio: RiskReward(rr, rrOK, DefaultChartRiskReward, minRR),
		ConfidenceScore: Confidence(score, scoreOK),
		ForecastReturn:  ForecastReturn(entry, target, direction),
		SwingPotential:  SwingFromSignal(strength),
		ChartPatterns:   FlattenPatterns(text(patterns, "primary_pattern"), secondaries...),
		TechnicalIndicators: map[string]any{
			"rsi":       rsi,
			"macd":      textOr(indicators, "macd_signal", NotVisible),
			"volume":    textOr(volume, "volume_trend", NotVisible),
			"sentiment": textOr(confidence, "signal_strength", DefaultSentiment),
		},
		ImageURL: imageURL,
	}

	extras := map[string]any{
		"chart_quality":      raw["chart_quality_assessment"],
		"price_analysis":     raw["price_analysis"],
		"technical_patterns": raw["technical_patterns"],
		"detailed_analysis":  raw["detailed_analysis"],
		"timeframe":          textOr(asset, "detected_timeframe", "Unknown"),
		"market_type":        textOr(asset, "market_type", "UNKNOWN"),
		"take_profit_2":      price(plan, "take_profit_2"),
		"position_size":      field(plan, "position_size_recommendation"),
		"key_risks":          stringList(confidence, "key_risk_factors"),
		"signal_strength":    field(confidence, "signal_strength"),
	}

	return Ok([]Candidate{{Analysis: analysis, Extras: extras}})
}
