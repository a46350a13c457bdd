package normalize

import (
	"fmt"

	"github.com/tradesnap/tradesnap/internal/prompts"
)

// Normalize converts decoded model output for p into candidates.
func Normalize(raw map[string]any, p prompts.Prompt) Result {
	if raw == nil {
		return Invalid(&ValidationError{Message: emptyResponseMessage})
	}

	switch p.Kind {
	case prompts.KindChart:
		imageURL := ""
		if len(p.FileURLs) > 0 {
			imageURL = p.FileURLs[0]
		}
		return Chart(raw, p.RiskRewardTarget, imageURL)
	case prompts.KindValueScreening:
		return ValueScreening(raw, p.Timeframe)
	case prompts.KindTopMovers:
		return TopMovers(raw)
	case prompts.KindNewsSignals:
		return NewsSignals(raw)
	default:
		return Invalid(&ValidationError{Message: fmt.Sprintf("no normalizer for %q", p.Kind)})
	}
}

const (
	emptyResponseMessage = "The AI returned an empty response."
	// IncompleteChartMessage is shown when the chart response lacks the
	// asset or the trading plan.
	IncompleteChartMessage = "The AI struggled to extract key trading information. Please use a clearer chart with visible asset names and price levels."
	incompleteScanMessage  = "The AI response did not contain any results."
)
