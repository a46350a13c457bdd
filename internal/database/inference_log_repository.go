package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tradesnap/tradesnap/internal/models"
)

// InferenceLogRepository stores language model calls in inference_logs.
type InferenceLogRepository struct {
	db *sql.DB
}

// NewInferenceLogRepository creates a new repository
func NewInferenceLogRepository(db *sql.DB) *InferenceLogRepository {
	return &InferenceLogRepository{db: db}
}

// CreateInferenceLog records one model call.
func (r *InferenceLogRepository) CreateInferenceLog(ctx context.Context, log models.InferenceLog) error {
	var metadata sql.NullString
	if log.Metadata != "" {
		metadata = sql.NullString{String: log.Metadata, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inference_logs (
			provider, model, operation, user_id, tokens_used, input_tokens, output_tokens,
			cost_usd, latency_ms, status, error_message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		log.Provider, log.Model, log.Operation, log.UserID,
		log.TokensUsed, log.InputTokens, log.OutputTokens,
		log.CostUSD, log.LatencyMs, log.Status, log.ErrorMessage, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inference log for %s: %w", log.Operation, err)
	}
	return nil
}

// logFilter turns the filter fields of q into a WHERE clause and its
// arguments. The clause is empty when q filters nothing.
func logFilter(q models.InferenceLogQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	for _, f := range []struct{ column, value string }{
		{"provider", q.Provider},
		{"model", q.Model},
		{"operation", q.Operation},
		{"status", q.Status},
		{"user_id", q.UserID},
	} {
		if f.value != "" {
			add(f.column+" = $%d", f.value)
		}
	}
	if q.StartDate != nil {
		add("created_at >= $%d", *q.StartDate)
	}
	if q.EndDate != nil {
		add("created_at <= $%d", *q.EndDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListInferenceLogs returns matching calls, newest first.
func (r *InferenceLogRepository) ListInferenceLogs(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error) {
	where, args := logFilter(query)
	sqlQuery := `
		SELECT id, provider, model, operation, user_id, tokens_used, input_tokens, output_tokens,
		       cost_usd, latency_ms, status, error_message, metadata, created_at
		FROM inference_logs` + where + `
		ORDER BY created_at DESC, id DESC`

	if query.Limit > 0 {
		args = append(args, query.Limit)
		sqlQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		sqlQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inference logs: %w", err)
	}
	defer rows.Close()

	var logs []models.InferenceLog
	for rows.Next() {
		log, err := scanInferenceLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func scanInferenceLog(rows *sql.Rows) (models.InferenceLog, error) {
	var (
		log      models.InferenceLog
		metadata sql.NullString
	)
	err := rows.Scan(
		&log.ID, &log.Provider, &log.Model, &log.Operation, &log.UserID,
		&log.TokensUsed, &log.InputTokens, &log.OutputTokens,
		&log.CostUSD, &log.LatencyMs, &log.Status, &log.ErrorMessage,
		&metadata, &log.CreatedAt,
	)
	if err != nil {
		return log, fmt.Errorf("failed to scan inference log: %w", err)
	}
	log.Metadata = metadata.String
	return log, nil
}

// InferenceLogStats aggregates the calls matching query, overall and per
// operation.
func (r *InferenceLogRepository) InferenceLogStats(ctx context.Context, query models.InferenceLogQuery) (*models.InferenceLogStats, error) {
	where, args := logFilter(query)
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			operation,
			COUNT(*),
			COALESCE(SUM(tokens_used), 0),
			COALESCE(SUM(cost_usd), 0),
			COUNT(*) FILTER (WHERE status = '`+models.InferenceSuccess+`'),
			COUNT(*) FILTER (WHERE status = '`+models.InferenceError+`'),
			COALESCE(SUM(latency_ms), 0)
		FROM inference_logs`+where+`
		GROUP BY operation`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get inference stats: %w", err)
	}
	defer rows.Close()

	stats := &models.InferenceLogStats{ByOperation: map[string]models.OperationStats{}}
	var latencySum int64
	for rows.Next() {
		var (
			operation         string
			calls, ok, failed int
			tokens, latency   int64
			cost              float64
		)
		if err := rows.Scan(&operation, &calls, &tokens, &cost, &ok, &failed, &latency); err != nil {
			return nil, fmt.Errorf("failed to scan inference stats: %w", err)
		}

		stats.TotalCalls += calls
		stats.TotalTokens += tokens
		stats.TotalCostUSD += cost
		stats.SuccessfulCalls += ok
		stats.FailedCalls += failed
		latencySum += latency
		stats.ByOperation[operation] = models.OperationStats{
			Calls:        calls,
			FailedCalls:  failed,
			TotalTokens:  tokens,
			AvgLatencyMs: float64(latency) / float64(calls),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inference stats: %w", err)
	}

	if stats.TotalCalls > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(stats.TotalCalls)
	}
	return stats, nil
}

// DeleteInferenceLogsBefore deletes calls made before cutoff.
func (r *InferenceLogRepository) DeleteInferenceLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inference_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inference logs: %w", err)
	}
	return result.RowsAffected()
}
