package prompts

import "strings"

var timeframeContexts = map[string]string{
	"1M":  "Ultra-high frequency analysis - Focus on instant momentum, tick-by-tick price action, and very tight stops. Best for experienced scalpers with fast execution.",
	"3M":  "Rapid scalping analysis - Quick momentum plays, breakout patterns, and immediate reversals. Requires constant monitoring and fast decision making.",
	"5M":  "Fast scalping setups - Short-term momentum bursts, quick support/resistance breaks, and rapid profit-taking opportunities.",
	"15M": "Short-term momentum analysis - Intraday patterns, quick trend changes, and scalping opportunities with slightly wider stops.",
	"30M": "Intraday swing analysis - 30-minute chart patterns, momentum shifts good for holding few hours within the trading day.",
	"1H":  "Focus on scalping opportunities, quick momentum plays, and intraday volatility. Look for breakouts and reversals with tight stops.",
	"4H":  "Analyze short-term swing setups, 4-hour chart patterns, and momentum shifts. Good for day to multi-day holds.",
	"1D":  "Daily momentum analysis, swing trading setups, and trend continuation patterns. Suitable for multi-day to weekly holds.",
	"1W":  "Weekly trend analysis, major support/resistance levels, and position trading opportunities. Focus on weekly chart patterns.",
	"1MO": "Monthly breakouts, long-term trend analysis, and investment-grade opportunities. Look for major trend changes.",
	"3MO": "Quarterly trend analysis, earnings impact, and medium-term position building opportunities.",
	"6MO": "Semi-annual analysis, seasonal patterns, and long-term investment opportunities with fundamental backing.",
	"1Y":  "Annual trend analysis, long-term investment picks, and major cycle analysis. Focus on fundamental value.",
}

const fallbackTimeframeContext = "Daily analysis for swing trading opportunities"

// Timeframes lists the screening timeframes in ascending order.
var Timeframes = []string{"1M", "3M", "5M", "15M", "30M", "1H", "4H", "1D", "1W", "1MO", "3MO", "6MO", "1Y"}

// TimeframeContext describes what a scan on tf should emphasize. Unknown
// timeframes get a generic daily description.
func TimeframeContext(tf string) string {
	if ctx, ok := timeframeContexts[tf]; ok {
		return ctx
	}
	return fallbackTimeframeContext
}

// NormalizeTimeframe upper-cases tf and substitutes the default when empty.
func NormalizeTimeframe(tf string) string {
	tf = strings.ToUpper(strings.TrimSpace(tf))
	if tf == "" {
		return DefaultTimeframe
	}
	return tf
}

const stockFocus = `FOCUS ON NSE STOCKS with real current prices:
- Large Cap: RELIANCE, TCS, INFY, HDFC, ICICIBANK, SBIN, LT, HCLTECH, WIPRO, ITC
- Mid Cap: BAJFINANCE, ASIANPAINT, MARUTI, SUNPHARMA, NESTLEIND
`

const cryptoFocus = `FOCUS ON MAJOR CRYPTOCURRENCIES with real current prices:
- Bitcoin (BTC), Ethereum (ETH), Binance Coin (BNB), Cardano (ADA)
- Solana (SOL), Polygon (MATIC), Chainlink (LINK), Polkadot (DOT)
`

// chartTemplate takes the formatted risk-reward target three times.
const chartTemplate = `You are an expert technical analyst with 15+ years of experience analyzing trading charts. Perform a comprehensive, professional-grade analysis of this chart image.

CRITICAL ANALYSIS REQUIREMENTS:
1. ASSET IDENTIFICATION: Carefully examine the chart to identify the exact asset symbol, company name, or trading pair
2. TIMEFRAME DETECTION: Determine the chart timeframe (1m, 5m, 15m, 1h, 4h, 1D, etc.) from visible indicators
3. PRICE LEVEL ANALYSIS: Read exact price levels from the chart axes and price labels
4. TECHNICAL PATTERN RECOGNITION: Identify specific chart patterns with EXACT names:
   - Reversal Patterns: Head and Shoulders, Inverse Head and Shoulders, Double Top, Double Bottom, Triple Top, Triple Bottom
   - Continuation Patterns: Bull Flag, Bear Flag, Pennant, Symmetrical Triangle, Ascending Triangle, Descending Triangle
   - Candlestick Patterns: Hammer, Doji, Engulfing, Morning Star, Evening Star, Shooting Star, Hanging Man
   - Advanced Patterns: Cup and Handle, Wedge (Rising/Falling), Rectangle, Channel (Ascending/Descending)
5. PATTERN COMPLETION STATUS: Assess whether each pattern is COMPLETE, FORMING, EARLY_STAGE or INVALIDATED
6. INDICATOR ANALYSIS: Analyze any visible technical indicators (RSI, MACD, moving averages, volume)
7. SUPPORT/RESISTANCE: Mark precise support and resistance levels based on price action
8. TREND ANALYSIS: Determine primary, secondary, and short-term trends
9. VOLUME CONFIRMATION: Analyze volume patterns if visible on the chart
10. ENTRY/EXIT STRATEGY: Provide a specific entry price, stop loss, and take profit levels. CRUCIAL: The trading plan's take profit must be set to achieve a risk-reward ratio of at least 1:%s. Calculate this based on a logical stop loss placement.
11. RISK MANAGEMENT: The final calculated risk-reward ratio in your response MUST be 1:%s or greater.

PROFESSIONAL ASSESSMENT CRITERIA:
- Pattern clarity and completion status
- Volume confirmation quality
- Risk-reward ratio (minimum %s:1 required)
- Probability of success based on technical factors
- Market context and overall trend alignment

OUTPUT REQUIREMENTS:
- Provide EXACT prices visible on the chart (not estimates)
- Give specific entry strategy with precise levels
- Assign confidence score based on signal quality
- Use precise pattern names from technical analysis literature

If any information is unclear from the chart, explicitly state what cannot be determined rather than guessing.
`

// moversTemplate takes the universe noun ("NSE stock" or "cryptocurrency").
const moversTemplate = `Identify today's top 10 %s movers with high volume and liquidity.

CRITICAL: Use REAL current market prices and actual trading data from today.

Focus on:
1. Assets with significant price movement (>3%% change)
2. High trading volume (above average)
3. Strong liquidity and market depth
4. Clear technical setups for swing trading
5. Momentum continuation potential
6. ACTUAL current market prices (not estimates)

For each asset provide:
- Real current market price
- Actual %% change from previous day
- Volume analysis (above/below average)
- Entry price for swing trade based on technical analysis
- Take profit and stop loss levels
- Swing potential rating
- Confidence score based on setup quality
- Risk-reward ratio

Prioritize assets with clean breakouts, strong volume, and favorable risk-reward setups.
All prices must be realistic and reflect current market conditions.
`

const newsTemplate = `Analyze recent market-moving news and identify stocks/crypto with strong momentum based on news sentiment.

Focus on:
1. Breaking news affecting specific companies or cryptocurrencies
2. Earnings announcements, product launches, regulatory news
3. Major partnerships, acquisitions, or strategic moves
4. Market sentiment analysis from news headlines
5. Volume and price reaction to news events

Identify 8-10 assets with:
- Clear news catalyst driving price movement
- Strong sentiment (positive or negative)
- Actionable trading opportunities
- Entry/exit levels based on technical analysis

For each provide:
- News headline summary
- Sentiment analysis (Very Positive, Positive, Negative, Very Negative)
- Trading recommendation with levels
- Confidence based on news impact and technical setup
`
