// Package prompts builds the instruction text and response schema for each
// analysis kind. Building a prompt performs no I/O.
package prompts

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/tradesnap/tradesnap/internal/schema"
)

// Kind selects which analysis a prompt asks for.
type Kind string

const (
	KindChart          Kind = "chart_analysis"
	KindValueScreening Kind = "value_screening"
	KindTopMovers      Kind = "top_movers"
	KindNewsSignals    Kind = "news_signals"
)

// AssetClass selects the universe a scan covers.
type AssetClass string

const (
	AssetClassStocks AssetClass = "stocks"
	AssetClassCrypto AssetClass = "crypto"
)

const (
	// DefaultRiskReward is used when a chart request omits the target.
	DefaultRiskReward = 2.0
	// DefaultTimeframe is used when a screening request omits the timeframe.
	DefaultTimeframe = "1D"
)

// RiskRewardChoices are the targets offered to users of the chart analyzer.
var RiskRewardChoices = []float64{2, 3, 4, 5}

// ErrMissingImage is returned for chart requests without an uploaded file.
var ErrMissingImage = errors.New("chart analysis requires an image")

// Request describes one analysis the caller wants a prompt for.
type Request struct {
	Kind             Kind
	AssetClass       AssetClass
	Timeframe        string
	RiskRewardTarget float64
	ImageURL         string
}

// Prompt is everything the LLM invocation service needs for one call.
type Prompt struct {
	Kind                   Kind
	Text                   string
	Schema                 *genai.Schema
	FileURLs               []string
	AddContextFromInternet bool

	// Resolved request parameters, used by normalization.
	AssetClass       AssetClass
	Timeframe        string
	RiskRewardTarget float64
}

// Build returns the prompt for req.
func Build(req Request) (Prompt, error) {
	switch req.Kind {
	case KindChart:
		return buildChart(req)
	case KindValueScreening:
		return buildValueScreening(req), nil
	case KindTopMovers:
		return buildTopMovers(req), nil
	case KindNewsSignals:
		return buildNewsSignals(req), nil
	default:
		return Prompt{}, fmt.Errorf("unknown prompt kind %q", req.Kind)
	}
}

// ValidRiskReward reports whether rr can be used as a chart target.
func ValidRiskReward(rr float64) bool {
	return !math.IsNaN(rr) && !math.IsInf(rr, 0) && rr >= 1
}

func buildChart(req Request) (Prompt, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return Prompt{}, ErrMissingImage
	}

	rr := req.RiskRewardTarget
	if rr == 0 {
		rr = DefaultRiskReward
	}
	if !ValidRiskReward(rr) {
		return Prompt{}, fmt.Errorf("risk-reward target must be a number >= 1, got %v", req.RiskRewardTarget)
	}

	ratio := schema.FormatRatio(rr)
	return Prompt{
		Kind:             KindChart,
		Text:             fmt.Sprintf(chartTemplate, ratio, ratio, ratio),
		Schema:           schema.ChartAnalysis(rr),
		FileURLs:         []string{req.ImageURL},
		RiskRewardTarget: rr,
	}, nil
}

func buildValueScreening(req Request) Prompt {
	class := normalizeClass(req.AssetClass)
	tf := NormalizeTimeframe(req.Timeframe)

	universe := "Indian NSE stocks"
	focus := stockFocus
	if class == AssetClassCrypto {
		universe = "cryptocurrencies"
		focus = cryptoFocus
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional market analyst. Analyze %s for valuation opportunities based on %s timeframe.\n\n", universe, tf)
	fmt.Fprintf(&sb, "TIMEFRAME ANALYSIS: %s\n\n", TimeframeContext(tf))
	sb.WriteString("CRITICAL REQUIREMENTS:\n")
	sb.WriteString("1. Use real current market prices\n")
	fmt.Fprintf(&sb, "2. Analyze price action on %s charts\n", tf)
	sb.WriteString("3. Apply timeframe-appropriate technical indicators\n")
	sb.WriteString("4. Identify assets with clear setups for the selected timeframe\n")
	fmt.Fprintf(&sb, "5. Provide entry/exit strategies suitable for %s trading\n\n", tf)
	sb.WriteString(focus)
	sb.WriteString("\nTIMEFRAME-SPECIFIC ANALYSIS:\n")
	fmt.Fprintf(&sb, "- %s chart patterns and setups\n", tf)
	fmt.Fprintf(&sb, "- Appropriate stop-loss and take-profit levels for %s\n", tf)
	fmt.Fprintf(&sb, "- Volume analysis on %s basis\n", tf)
	fmt.Fprintf(&sb, "- Support/resistance levels relevant to %s\n", tf)
	fmt.Fprintf(&sb, "- Risk-reward ratios suitable for %s holds\n\n", tf)
	sb.WriteString("Find 5-6 UNDERPRICED and 5-6 OVERPRICED assets with:\n")
	sb.WriteString("- Real current market prices\n")
	fmt.Fprintf(&sb, "- Clear %s setups\n", tf)
	sb.WriteString("- Timeframe-appropriate trade durations\n")
	fmt.Fprintf(&sb, "- Proper risk management for %s\n", tf)

	return Prompt{
		Kind:                   KindValueScreening,
		Text:                   sb.String(),
		Schema:                 schema.ValueScreening(),
		AddContextFromInternet: true,
		AssetClass:             class,
		Timeframe:              tf,
	}
}

func buildTopMovers(req Request) Prompt {
	class := normalizeClass(req.AssetClass)
	universe := "NSE stock"
	if class == AssetClassCrypto {
		universe = "cryptocurrency"
	}

	return Prompt{
		Kind:                   KindTopMovers,
		Text:                   fmt.Sprintf(moversTemplate, universe),
		Schema:                 schema.TopMovers(),
		AddContextFromInternet: true,
		AssetClass:             class,
	}
}

func buildNewsSignals(req Request) Prompt {
	return Prompt{
		Kind:                   KindNewsSignals,
		Text:                   newsTemplate,
		Schema:                 schema.NewsSignals(),
		AddContextFromInternet: true,
		AssetClass:             req.AssetClass,
	}
}

func normalizeClass(c AssetClass) AssetClass {
	if c == AssetClassCrypto {
		return AssetClassCrypto
	}
	return AssetClassStocks
}
