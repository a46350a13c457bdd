package inference

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
)

// writeTimeout bounds each background insert.
const writeTimeout = 5 * time.Second

// Logger logs inference calls to the store
type Logger struct {
	repo   store.InferenceLogs
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewLogger creates a new inference logger
func NewLogger(repo store.InferenceLogs, logger *slog.Logger) *Logger {
	return &Logger{
		repo:   repo,
		logger: logger,
	}
}

// LogCallParams describes one provider call
type LogCallParams struct {
	Provider     string
	Model        string
	Operation    string
	UserID       string
	TokensUsed   int
	InputTokens  *int
	OutputTokens *int
	CostUSD      *float64
	LatencyMs    *int
	Status       string // "success" or "error"
	ErrorMessage *string
	Metadata     map[string]interface{} // Additional context
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Call is a completed provider call ready to be logged.
type Call struct {
	Provider  string
	Model     string
	Operation string
	UserID    string
	Usage     Usage
	Latency   time.Duration
	Err       error
	Metadata  map[string]interface{}
}

// LogCall logs an inference call without blocking the caller
func (l *Logger) LogCall(ctx context.Context, params LogCallParams) {
	var metadataJSON string
	if params.Metadata != nil {
		if jsonBytes, err := json.Marshal(params.Metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	log := models.InferenceLog{
		Provider:     params.Provider,
		Model:        params.Model,
		Operation:    params.Operation,
		UserID:       params.UserID,
		TokensUsed:   params.TokensUsed,
		InputTokens:  params.InputTokens,
		OutputTokens: params.OutputTokens,
		CostUSD:      params.CostUSD,
		LatencyMs:    params.LatencyMs,
		Status:       params.Status,
		ErrorMessage: params.ErrorMessage,
		Metadata:     metadataJSON,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		if err := l.repo.CreateInferenceLog(bgCtx, log); err != nil {
			l.logger.Error("failed to log inference call", "error", err)
		}
	}()
}

// Wait blocks until every pending write has finished.
func (l *Logger) Wait() {
	l.wg.Wait()
}

// Log records c, estimating its cost from the provider's price table.
func (l *Logger) Log(ctx context.Context, c Call) {
	input, output := c.Usage.InputTokens, c.Usage.OutputTokens
	params := LogCallParams{
		Provider:     c.Provider,
		Model:        c.Model,
		Operation:    c.Operation,
		UserID:       c.UserID,
		TokensUsed:   c.Usage.Total(),
		InputTokens:  &input,
		OutputTokens: &output,
		Metadata:     c.Metadata,
	}

	latencyMs := int(c.Latency.Milliseconds())
	params.LatencyMs = &latencyMs

	if c.Err != nil {
		params.Status = models.InferenceError
		errMsg := c.Err.Error()
		params.ErrorMessage = &errMsg
	} else {
		params.Status = models.InferenceSuccess
	}

	if cost, ok := EstimateCost(c.Provider, c.Model, input, output); ok {
		params.CostUSD = &cost
	}

	l.LogCall(ctx, params)
}

type price struct {
	inputPer1M, outputPer1M float64
}

// Rough list prices per 1M tokens.
var prices = map[string]map[string]price{
	"openai": {
		"gpt-4o":       {2.50, 10.00},
		"gpt-4o-mini":  {0.15, 0.60},
		"gpt-4.1":      {2.00, 8.00},
		"gpt-4.1-mini": {0.40, 1.60},
		"":             {5.00, 15.00},
	},
	"anthropic": {
		"claude-sonnet-4-20250514":   {3.00, 15.00},
		"claude-3-5-sonnet-20240620": {3.00, 15.00},
		"claude-3-haiku-20240307":    {0.25, 1.25},
		"":                           {3.00, 15.00},
	},
	"gemini": {
		"gemini-2.5-flash": {0.30, 2.50},
		"gemini-2.5-pro":   {1.25, 10.00},
		"":                 {0.30, 2.50},
	},
}

// EstimateCost returns the approximate USD cost of a call. Unknown models
// use the provider's default row; unknown providers have no estimate.
func EstimateCost(provider, model string, inputTokens, outputTokens int) (float64, bool) {
	table, ok := prices[strings.ToLower(provider)]
	if !ok {
		return 0, false
	}
	p, ok := table[model]
	if !ok {
		p = table[""]
	}

	inputCost := (float64(inputTokens) / 1_000_000) * p.inputPer1M
	outputCost := (float64(outputTokens) / 1_000_000) * p.outputPer1M

	return inputCost + outputCost, true
}
