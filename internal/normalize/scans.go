package normalize

import (
	"math"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/schema"
)

// Screening categories attached to value screening candidates.
const (
	CategoryUnderpriced = "UNDERPRICED"
	CategoryOverpriced  = "OVERPRICED"
	BuyOpportunity      = "BUY_OPPORTUNITY"
	SellOpportunity     = "SELL_OPPORTUNITY"
)

// ValueScreening normalizes the underpriced/overpriced scan. At least one of
// the two arrays must be present.
func ValueScreening(raw map[string]any, timeframe string) Result {
	under, hasUnder := list(raw, schema.KeyUnderpricedOpportunities)
	over, hasOver := list(raw, schema.KeyOverpricedWarnings)
	if !hasUnder && !hasOver {
		return Invalid(&ValidationError{
			Missing: []string{schema.KeyUnderpricedOpportunities, schema.KeyOverpricedWarnings},
			Message: incompleteScanMessage,
		})
	}

	setup := timeframe + "_SETUP"
	candidates := make([]Candidate, 0, len(under)+len(over))

	for _, item := range items(under) {
		c := valuationCandidate(item, models.DirectionBuy)
		c.Analysis.ForecastReturn, _ = number(item, "upside_potential")
		c.Analysis.ChartPatterns = []string{"UNDERVALUED", setup}
		c.Extras["category"] = CategoryUnderpriced
		c.Extras["valuation_gap"] = field(item, "discount_percentage")
		c.Extras["valuation_reason"] = text(item, "underpriced_reason")
		c.Extras["opportunity_type"] = BuyOpportunity
		c.Extras["risk_level"] = textOr(item, "risk_level", "MEDIUM")
		c.Extras["potential_return"] = c.Analysis.ForecastReturn
		c.Extras["timeframe"] = timeframe
		candidates = append(candidates, c)
	}

	for _, item := range items(over) {
		c := valuationCandidate(item, models.DirectionSell)
		downside, _ := number(item, "downside_risk")
		c.Analysis.ForecastReturn = -math.Abs(downside)
		c.Analysis.ChartPatterns = []string{"OVERVALUED", setup}
		c.Extras["category"] = CategoryOverpriced
		c.Extras["valuation_gap"] = field(item, "premium_percentage")
		c.Extras["valuation_reason"] = text(item, "overpriced_reason")
		c.Extras["opportunity_type"] = SellOpportunity
		c.Extras["risk_level"] = textOr(item, "risk_level", "HIGH")
		c.Extras["potential_return"] = c.Analysis.ForecastReturn
		c.Extras["timeframe"] = timeframe
		candidates = append(candidates, c)
	}

	return Ok(candidates)
}

func valuationCandidate(item map[string]any, direction models.Direction) Candidate {
	score, ok := number(item, "confidence_score")
	return Candidate{
		Analysis: models.Analysis{
			Type:                models.AnalysisTypeValueScreening,
			AssetSymbol:         text(item, "asset_symbol"),
			AssetName:           text(item, "asset_name"),
			Direction:           direction,
			EntryPrice:          price(item, "entry_price"),
			TakeProfit:          price(item, "target_price"),
			StopLoss:            price(item, "stop_loss"),
			RiskRewardRatio:     DefaultScanRiskReward,
			ConfidenceScore:     Confidence(score, ok),
			SwingPotential:      models.SwingHigh,
			TechnicalIndicators: indicatorsOf(item, "technical_analysis"),
		},
		Extras: map[string]any{
			"current_price":     field(item, "current_price"),
			"fair_value":        field(item, "fair_value_estimate"),
			"timeframe_setup":   text(item, "timeframe_setup"),
			"expected_duration": text(item, "expected_duration"),
		},
	}
}

// TopMovers normalizes the momentum scan.
func TopMovers(raw map[string]any) Result {
	movers, ok := list(raw, schema.KeyTopMovers)
	if !ok {
		return Invalid(&ValidationError{Missing: []string{schema.KeyTopMovers}, Message: incompleteScanMessage})
	}

	candidates := make([]Candidate, 0, len(movers))
	for _, item := range items(movers) {
		direction, ok := tradeDirection(item)
		if !ok {
			continue
		}

		entry := price(item, "entry_price")
		target := price(item, "take_profit")
		score, scoreOK := number(item, "confidence_score")
		rr, rrOK := number(item, "risk_reward_ratio")

		volumeChange, _ := number(item, "volume_change_percent")
		candidates = append(candidates, Candidate{
			Analysis: models.Analysis{
				Type:                models.AnalysisTypeAssetScreening,
				AssetSymbol:         text(item, "asset_symbol"),
				AssetName:           text(item, "asset_name"),
				Direction:           direction,
				EntryPrice:          entry,
				TakeProfit:          target,
				StopLoss:            price(item, "stop_loss"),
				RiskRewardRatio:     RiskReward(rr, rrOK, DefaultScanRiskReward, 0),
				ConfidenceScore:     Confidence(score, scoreOK),
				ForecastReturn:      ForecastReturn(entry, target, direction),
				SwingPotential:      models.ParseSwingPotential(text(item, "swing_potential")),
				TechnicalIndicators: indicatorsOf(item, "technical_indicators"),
				ChartPatterns:       []string{"High Volume", "Momentum"},
			},
			Extras: map[string]any{
				"current_price":         field(item, "current_price"),
				"price_change_percent":  field(item, "price_change_percent"),
				"volume_status":         textOr(item, "volume_status", "HIGH"),
				"volume_change_percent": volumeChange,
			},
		})
	}

	return Ok(candidates)
}

// NewsSignals normalizes the news sentiment scan.
func NewsSignals(raw map[string]any) Result {
	signals, ok := list(raw, schema.KeyNewsSignals)
	if !ok {
		return Invalid(&ValidationError{Missing: []string{schema.KeyNewsSignals}, Message: incompleteScanMessage})
	}

	candidates := make([]Candidate, 0, len(signals))
	for _, item := range items(signals) {
		direction, ok := tradeDirection(item)
		if !ok {
			continue
		}

		entry := price(item, "entry_price")
		target := price(item, "take_profit")
		score, scoreOK := number(item, "confidence_score")
		rr, rrOK := number(item, "risk_reward_ratio")
		forecast, hasForecast := number(item, "forecast_return")
		if !hasForecast {
			forecast = ForecastReturn(entry, target, direction)
		}
		sentiment := text(item, "sentiment")

		candidates = append(candidates, Candidate{
			Analysis: models.Analysis{
				Type:                models.AnalysisTypeNewsSentiment,
				AssetSymbol:         text(item, "asset_symbol"),
				AssetName:           text(item, "asset_name"),
				Direction:           direction,
				EntryPrice:          entry,
				TakeProfit:          target,
				StopLoss:            price(item, "stop_loss"),
				RiskRewardRatio:     RiskReward(rr, rrOK, DefaultScanRiskReward, 0),
				ConfidenceScore:     Confidence(score, scoreOK),
				ForecastReturn:      forecast,
				SwingPotential:      models.SwingMedium,
				TechnicalIndicators: indicatorsOf(item, "technical_indicators"),
				ChartPatterns:       FlattenPatterns(sentiment),
				NewsHeadline:        text(item, "news_headline"),
			},
			Extras: map[string]any{
				"sentiment":    sentiment,
				"time_horizon": textOr(item, "time_horizon", "MEDIUM"),
			},
		})
	}

	return Ok(candidates)
}

// items keeps the object entries that carry a symbol.
func items(entries []any) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok && text(m, "asset_symbol") != "" {
			out = append(out, m)
		}
	}
	return out
}

// tradeDirection accepts only BUY and SELL, the directions scans may emit.
func tradeDirection(item map[string]any) (models.Direction, bool) {
	d, ok := models.ParseDirection(text(item, "direction"))
	if !ok || (d != models.DirectionBuy && d != models.DirectionSell) {
		return "", false
	}
	return d, true
}

func indicatorsOf(item map[string]any, key string) map[string]any {
	if m, ok := object(item, key); ok {
		return m
	}
	return map[string]any{}
}
