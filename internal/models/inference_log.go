package models

import "time"

// Inference call statuses.
const (
	InferenceSuccess = "success"
	InferenceError   = "error"
)

// InferenceLog is one call to a language model made while running an
// analysis.
type InferenceLog struct {
	ID           int       `json:"id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Operation    string    `json:"operation"` // prompt kind, e.g. chart_analysis
	UserID       string    `json:"user_id"`
	TokensUsed   int       `json:"tokens_used"`
	InputTokens  *int      `json:"input_tokens"`
	OutputTokens *int      `json:"output_tokens"`
	CostUSD      *float64  `json:"cost_usd"`
	LatencyMs    *int      `json:"latency_ms"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message"`
	Metadata     string    `json:"metadata"` // JSON object, attempts and rate limit flags
	CreatedAt    time.Time `json:"created_at"`
}

// OperationStats aggregates the calls made for one analysis kind.
type OperationStats struct {
	Calls        int     `json:"calls"`
	FailedCalls  int     `json:"failed_calls"`
	TotalTokens  int64   `json:"total_tokens"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// InferenceLogStats aggregates the calls matching a query.
type InferenceLogStats struct {
	TotalCalls      int                       `json:"total_calls"`
	TotalTokens     int64                     `json:"total_tokens"`
	TotalCostUSD    float64                   `json:"total_cost_usd"`
	SuccessfulCalls int                       `json:"successful_calls"`
	FailedCalls     int                       `json:"failed_calls"`
	AvgLatencyMs    float64                   `json:"avg_latency_ms"`
	ByOperation     map[string]OperationStats `json:"by_operation"`
}

// InferenceLogQuery filters inference logs. Limit and Offset are ignored by
// stats.
type InferenceLogQuery struct {
	Provider  string
	Model     string
	Operation string
	Status    string
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
