package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tradesnap/tradesnap/internal/prompts"
)

// Mock is a Provider that answers from canned responses without network
// calls. It serves local development and tests.
type Mock struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []Call
	err       error
}

// NewMock returns a Mock preloaded with a plausible answer for every
// prompt kind.
func NewMock() *Mock {
	return &Mock{
		responses: map[string]string{
			string(prompts.KindChart):          mockChart,
			string(prompts.KindValueScreening): mockValueScreening,
			string(prompts.KindTopMovers):      mockTopMovers,
			string(prompts.KindNewsSignals):    mockNewsSignals,
		},
	}
}

// Name implements Provider.
func (m *Mock) Name() string { return ProviderMock }

// SetResponse replaces the answer for operation. v is marshalled unless it
// is already a string.
func (m *Mock) SetResponse(operation string, v any) error {
	text, ok := v.(string)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal mock response: %w", err)
		}
		text = string(b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[operation] = text
	return nil
}

// SetError makes every following call fail with err. A nil err clears it.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the calls received so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Complete implements Provider.
func (m *Mock) Complete(ctx context.Context, call Call) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)

	completion := Completion{Model: "mock", Attempts: 1}
	if m.err != nil {
		return completion, m.err
	}

	text, ok := m.responses[call.Operation]
	if !ok {
		return completion, fmt.Errorf("no mock response for %q", call.Operation)
	}
	completion.Text = text
	completion.Usage.InputTokens = len(call.Prompt) / 4
	completion.Usage.OutputTokens = len(text) / 4
	return completion, nil
}

const mockChart = `{
  "chart_quality_assessment": {"image_clarity": "GOOD", "price_levels_visible": true},
  "asset_identification": {"asset_symbol": "RELIANCE", "asset_name": "Reliance Industries", "market_type": "STOCK", "detected_timeframe": "1D"},
  "price_analysis": {"current_price": 2500, "trend_direction": "UPTREND", "key_support_levels": [2450, 2400], "key_resistance_levels": [2600, 2700]},
  "technical_patterns": {"primary_pattern": "Ascending Triangle", "additional_patterns": [{"pattern_name": "Higher Lows", "completion_status": "FORMING"}]},
  "technical_indicators": {"rsi_reading": 58, "macd_signal": "BULLISH_CROSSOVER", "volume_analysis": {"volume_trend": "INCREASING"}},
  "trading_recommendation": {"direction": "BUY", "entry_price": 2500, "stop_loss": 2450, "take_profit_1": 2600, "take_profit_2": 2700, "risk_reward_ratio": 2, "position_size_recommendation": "MEDIUM"},
  "confidence_assessment": {"overall_confidence": 78, "signal_strength": "STRONG", "key_risk_factors": ["Broad market weakness"]},
  "detailed_analysis": "Price is pressing the top of an ascending triangle on rising volume."
}`

const mockValueScreening = `{
  "underpriced_opportunities": [
    {"asset_symbol": "INFY", "asset_name": "Infosys", "current_price": 1500, "fair_value_estimate": 1750, "discount_percentage": 14.3, "upside_potential": 10,
     "entry_price": 1500, "target_price": 1650, "stop_loss": 1440, "confidence_score": 72, "underpriced_reason": "Trading below sector multiples",
     "timeframe_setup": "Breakout from base", "expected_duration": "2-3 weeks", "risk_level": "MEDIUM"}
  ],
  "overpriced_warnings": [
    {"asset_symbol": "ITC", "asset_name": "ITC Limited", "current_price": 480, "fair_value_estimate": 440, "premium_percentage": 9.1, "downside_risk": 8,
     "entry_price": 480, "target_price": 445, "stop_loss": 495, "confidence_score": 65, "overpriced_reason": "Stretched above long-term average",
     "timeframe_setup": "Bearish divergence", "expected_duration": "1-2 weeks", "risk_level": "HIGH"}
  ]
}`

const mockTopMovers = `{
  "top_movers": [
    {"asset_symbol": "TATAMOTORS", "asset_name": "Tata Motors", "current_price": 950, "price_change_percent": 4.2, "direction": "BUY",
     "entry_price": 950, "take_profit": 1010, "stop_loss": 926, "confidence_score": 70, "swing_potential": "HIGH", "volume_status": "VERY_HIGH", "volume_change_percent": 180},
    {"asset_symbol": "WIPRO", "asset_name": "Wipro", "current_price": 420, "price_change_percent": -3.1, "direction": "SELL",
     "entry_price": 420, "take_profit": 400, "stop_loss": 428, "confidence_score": 64, "volume_status": "HIGH", "volume_change_percent": 95}
  ]
}`

const mockNewsSignals = `{
  "news_signals": [
    {"asset_symbol": "HDFCBANK", "asset_name": "HDFC Bank", "news_headline": "HDFC Bank reports record quarterly profit", "sentiment": "Very Positive",
     "direction": "BUY", "entry_price": 1600, "take_profit": 1700, "stop_loss": 1560, "forecast_return": 6.25, "confidence_score": 74, "time_horizon": "SHORT"},
    {"asset_symbol": "BTC/USD", "asset_name": "Bitcoin", "news_headline": "Regulators delay spot ETF decision", "sentiment": "Negative",
     "direction": "SELL", "entry_price": 62000, "take_profit": 58000, "stop_loss": 64000, "confidence_score": 61}
  ]
}`
