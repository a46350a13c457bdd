// Package schema defines the response shapes requested from the language
// model for each analysis kind.
package schema

import (
	"fmt"
	"strconv"

	"google.golang.org/genai"
)

// Top-level keys the normalizer depends on.
const (
	KeyAssetIdentification      = "asset_identification"
	KeyTradingRecommendation    = "trading_recommendation"
	KeyUnderpricedOpportunities = "underpriced_opportunities"
	KeyOverpricedWarnings       = "overpriced_warnings"
	KeyTopMovers                = "top_movers"
	KeyNewsSignals              = "news_signals"
)

// Enumerations shared between schemas and normalization.
var (
	Directions      = []string{"BUY", "SELL", "HOLD", "WAIT"}
	SignalStrengths = []string{"VERY_STRONG", "STRONG", "MODERATE", "WEAK"}
	MarketTypes     = []string{"STOCK", "CRYPTO", "FOREX", "COMMODITY", "INDEX", "UNKNOWN"}
	Completion      = []string{"COMPLETE", "FORMING", "EARLY_STAGE", "INVALIDATED"}
	Reliability     = []string{"HIGH", "MEDIUM", "LOW"}
	Sentiments      = []string{"Very Positive", "Positive", "Negative", "Very Negative"}

	ChartPatterns = []string{
		"Head and Shoulders", "Inverse Head and Shoulders", "Double Top", "Double Bottom",
		"Triple Top", "Triple Bottom", "Bull Flag", "Bear Flag", "Pennant",
		"Symmetrical Triangle", "Ascending Triangle", "Descending Triangle",
		"Cup and Handle", "Rising Wedge", "Falling Wedge", "Rectangle",
		"Ascending Channel", "Descending Channel", "Hammer", "Doji",
		"Bullish Engulfing", "Bearish Engulfing", "Morning Star", "Evening Star",
		"Shooting Star", "Hanging Man", "Support Breakout", "Resistance Breakout",
		"Trend Continuation", "Trend Reversal", "Consolidation", "NO_CLEAR_PATTERN",
	}
)

// FormatRatio renders a risk-reward target the same way in prompt text and
// schema descriptions: no trailing zeros, "2" rather than "2.00".
func FormatRatio(rr float64) string {
	return strconv.FormatFloat(rr, 'f', -1, 64)
}

// ChartAnalysis is the schema for single-image chart analysis. minRR becomes
// the minimum of trading_recommendation.risk_reward_ratio.
func ChartAnalysis(minRR float64) *genai.Schema {
	return object(map[string]*genai.Schema{
		"chart_quality_assessment": object(map[string]*genai.Schema{
			"image_clarity":        enum("", "EXCELLENT", "GOOD", "FAIR", "POOR"),
			"price_labels_visible": boolean(),
			"timeframe_visible":    boolean(),
			"indicators_present":   boolean(),
			"volume_visible":       boolean(),
		}),
		KeyAssetIdentification: object(map[string]*genai.Schema{
			"asset_symbol":       str("Exact asset symbol from chart or 'UNKNOWN' if not visible"),
			"asset_name":         str("Full asset name or description"),
			"market_type":        enum("", MarketTypes...),
			"detected_timeframe": str("Chart timeframe if visible (1m, 5m, 1h, 1D, etc.)"),
		}),
		"price_analysis": object(map[string]*genai.Schema{
			"current_price":         num("Current price from chart or null if not visible"),
			"price_range_high":      num(""),
			"price_range_low":       num(""),
			"key_support_levels":    array("Precise support levels from chart", num("")),
			"key_resistance_levels": array("Precise resistance levels from chart", num("")),
		}),
		"technical_patterns": object(map[string]*genai.Schema{
			"primary_pattern":            enum("Main chart pattern identified using standard technical analysis names", ChartPatterns...),
			"pattern_completion":         enum("Accurate assessment of pattern completion status", Completion...),
			"pattern_reliability":        enum("Pattern reliability based on formation quality and volume confirmation", Reliability...),
			"pattern_target":             num("Calculated price target based on pattern measurements"),
			"volume_confirmation":        enum("Volume confirmation for the pattern", "STRONG", "MODERATE", "WEAK", "NOT_VISIBLE"),
			"pattern_invalidation_level": num("Price level at which pattern becomes invalid"),
			"additional_patterns": array("Secondary patterns visible on the chart", object(map[string]*genai.Schema{
				"pattern_name":      str(""),
				"completion_status": enum("", Completion...),
				"reliability":       enum("", Reliability...),
			}, "pattern_name", "completion_status")),
		}),
		"technical_indicators": object(map[string]*genai.Schema{
			"rsi_reading": num("RSI value if visible, null otherwise"),
			"rsi_condition": enum("RSI condition based on its value",
				"OVERSOLD", "OVERSOLD_EXTREME", "NEUTRAL", "OVERBOUGHT", "OVERBOUGHT_EXTREME", "NOT_VISIBLE"),
			"macd_signal": enum("MACD signal detected from the chart",
				"BULLISH_CROSSOVER", "BEARISH_CROSSOVER", "BULLISH_DIVERGENCE", "BEARISH_DIVERGENCE", "NEUTRAL", "NOT_VISIBLE"),
			"moving_averages": object(map[string]*genai.Schema{
				"ma20_level":   num(""),
				"ma50_level":   num(""),
				"ma200_level":  num(""),
				"price_vs_ma":  enum("", "ABOVE_ALL", "BELOW_ALL", "MIXED", "NOT_VISIBLE"),
				"ma_alignment": enum("", "BULLISH", "BEARISH", "MIXED", "NOT_VISIBLE"),
			}),
			"volume_analysis": object(map[string]*genai.Schema{
				"volume_trend":        enum("", "INCREASING", "DECREASING", "AVERAGE", "SPIKE", "NOT_VISIBLE"),
				"volume_confirmation": enum("", "CONFIRMED", "DIVERGENCE", "NEUTRAL", "NOT_VISIBLE"),
			}),
		}),
		KeyTradingRecommendation: object(map[string]*genai.Schema{
			"direction":     enum("Primary trading recommendation", Directions...),
			"entry_price":   num("Recommended entry price based on chart analysis"),
			"stop_loss":     num("Stop loss level based on chart structure and pattern invalidation"),
			"take_profit_1": num("First take profit target based on pattern measurements"),
			"take_profit_2": num("Second take profit target if applicable"),
			"risk_reward_ratio": withMin(
				num(fmt.Sprintf("Calculated Risk to reward ratio, must be at least %s", FormatRatio(minRR))),
				minRR,
			),
			"position_size_recommendation": enum("Suggested position size based on setup quality and pattern reliability", "SMALL", "MEDIUM", "LARGE"),
			"entry_strategy":               str("Detailed entry strategy based on pattern completion"),
		}, "direction", "entry_price", "stop_loss", "take_profit_1", "risk_reward_ratio"),
		"confidence_assessment": object(map[string]*genai.Schema{
			"overall_confidence": score("Overall confidence in analysis based on pattern quality and confirmation"),
			"signal_strength":    enum("", SignalStrengths...),
			"pattern_confidence": score("Confidence in pattern identification and completion"),
			"key_risk_factors":   array("Main risks including pattern failure scenarios", str("")),
		}),
		"detailed_analysis": object(map[string]*genai.Schema{
			"market_structure":      str("Analysis of overall market structure and trend context"),
			"pattern_analysis":      str("Detailed explanation of identified patterns, their formation, and significance"),
			"entry_strategy":        str("Detailed entry strategy based on pattern completion and confirmation"),
			"exit_strategy":         str("Detailed exit strategy including partial profit-taking based on pattern targets"),
			"alternative_scenarios": str("What to do if patterns fail or market structure changes"),
		}),
	}, KeyAssetIdentification, KeyTradingRecommendation)
}

// ValueScreening is the schema for the underpriced/overpriced scan.
func ValueScreening() *genai.Schema {
	technical := object(map[string]*genai.Schema{
		"rsi":              num(""),
		"support_level":    num(""),
		"resistance_level": num(""),
		"volume_trend":     str(""),
		"pattern":          str("Chart pattern on selected timeframe"),
	})

	valuation := func(direction, gapField, moveField, reasonField string, risks ...string) *genai.Schema {
		return object(map[string]*genai.Schema{
			"asset_symbol":        str(""),
			"asset_name":          str(""),
			"current_price":       num("Real current market price"),
			"fair_value_estimate": num(""),
			gapField:              num(""),
			"direction":           enum("", direction),
			"entry_price":         num(""),
			"target_price":        num(""),
			"stop_loss":           num(""),
			"confidence_score":    score(""),
			moveField:             num(""),
			reasonField:           str(""),
			"timeframe_setup":     str("Why this setup works for the selected timeframe"),
			"expected_duration":   str("Expected trade duration for this timeframe"),
			"risk_level":          enum("", risks...),
			"technical_analysis":  technical,
		}, "asset_symbol", "current_price", reasonField, "timeframe_setup")
	}

	return object(map[string]*genai.Schema{
		"timeframe_analysis": str("Summary of timeframe-specific market conditions"),
		KeyUnderpricedOpportunities: array("",
			valuation("BUY", "discount_percentage", "upside_potential", "underpriced_reason", "LOW", "MEDIUM")),
		KeyOverpricedWarnings: array("",
			valuation("SELL", "premium_percentage", "downside_risk", "overpriced_reason", "MEDIUM", "HIGH")),
	}, KeyUnderpricedOpportunities, KeyOverpricedWarnings)
}

// TopMovers is the schema for the high-volume momentum scan.
func TopMovers() *genai.Schema {
	return object(map[string]*genai.Schema{
		KeyTopMovers: array("", object(map[string]*genai.Schema{
			"asset_symbol":          str(""),
			"asset_name":            str(""),
			"current_price":         num("Real current market price"),
			"price_change_percent":  num("Actual % change today"),
			"direction":             enum("", "BUY", "SELL"),
			"entry_price":           num(""),
			"take_profit":           num(""),
			"stop_loss":             num(""),
			"risk_reward_ratio":     num(""),
			"confidence_score":      score(""),
			"swing_potential":       enum("", "LOW", "MEDIUM", "HIGH"),
			"volume_status":         enum("", "HIGH", "VERY_HIGH", "AVERAGE"),
			"volume_change_percent": num("Volume change vs average"),
			"technical_indicators": object(map[string]*genai.Schema{
				"rsi":       num(""),
				"volume":    str(""),
				"sentiment": str(""),
			}),
		}, "asset_symbol", "current_price", "price_change_percent", "direction")),
	}, KeyTopMovers)
}

// NewsSignals is the schema for the news-driven sentiment scan.
func NewsSignals() *genai.Schema {
	return object(map[string]*genai.Schema{
		KeyNewsSignals: array("", object(map[string]*genai.Schema{
			"asset_symbol":      str(""),
			"asset_name":        str(""),
			"news_headline":     str(""),
			"sentiment":         enum("", Sentiments...),
			"direction":         enum("", "BUY", "SELL"),
			"entry_price":       num(""),
			"take_profit":       num(""),
			"stop_loss":         num(""),
			"risk_reward_ratio": num(""),
			"confidence_score":  score(""),
			"forecast_return":   num(""),
			"time_horizon":      enum("", "SHORT", "MEDIUM", "LONG"),
			"technical_indicators": object(map[string]*genai.Schema{
				"volume":    str(""),
				"sentiment": str(""),
			}),
		}, "asset_symbol", "news_headline", "sentiment", "direction")),
	}, KeyNewsSignals)
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func array(description string, items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: description, Items: items}
}

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func num(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: description}
}

func boolean() *genai.Schema {
	return &genai.Schema{Type: genai.TypeBoolean}
}

func enum(description string, values ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description, Enum: values}
}

func score(description string) *genai.Schema {
	s := withMin(num(description), 0)
	s.Maximum = float64Ptr(100)
	return s
}

func withMin(s *genai.Schema, minimum float64) *genai.Schema {
	s.Minimum = float64Ptr(minimum)
	return s
}

func float64Ptr(v float64) *float64 {
	return &v
}
