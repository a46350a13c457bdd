package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tradesnap/tradesnap/internal/models"
)

// AnalysisRepository handles analysis database operations.
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new repository.
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, type, asset_symbol, asset_name, direction, entry_price, take_profit,
	stop_loss, risk_reward_ratio, confidence_score, forecast_return, swing_potential,
	technical_indicators, chart_patterns, image_url, news_headline, created_by, created_date`

// CreateAnalysis inserts a, assigning its id and created date.
func (r *AnalysisRepository) CreateAnalysis(ctx context.Context, a models.Analysis) (models.Analysis, error) {
	indicators, err := json.Marshal(orEmpty(a.TechnicalIndicators))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to marshal technical indicators: %w", err)
	}
	if a.ChartPatterns == nil {
		a.ChartPatterns = []string{}
	}

	a.ID = uuid.NewString()
	query := `
		INSERT INTO analyses (
			id, type, asset_symbol, asset_name, direction, entry_price, take_profit,
			stop_loss, risk_reward_ratio, confidence_score, forecast_return, swing_potential,
			technical_indicators, chart_patterns, image_url, news_headline, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_date
	`

	err = r.db.QueryRowContext(ctx, query,
		a.ID,
		a.Type,
		a.AssetSymbol,
		a.AssetName,
		a.Direction,
		a.EntryPrice,
		a.TakeProfit,
		a.StopLoss,
		a.RiskRewardRatio,
		a.ConfidenceScore,
		a.ForecastReturn,
		a.SwingPotential,
		string(indicators),
		pq.Array(a.ChartPatterns),
		a.ImageURL,
		a.NewsHeadline,
		a.CreatedBy,
	).Scan(&a.CreatedDate)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return a, nil
}

// GetAnalysis returns one analysis by id.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, id string) (models.Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Analysis{}, notFound(sql.ErrNoRows)
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+analysisColumns+" FROM analyses WHERE id = $1", id)
	a, err := scanAnalysis(row)
	if err != nil {
		return models.Analysis{}, notFound(err)
	}
	return a, nil
}

// ListAnalyses returns analyses matching filter in the filter's sort order.
func (r *AnalysisRepository) ListAnalyses(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	sqlQuery := "SELECT " + analysisColumns + " FROM analyses WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.CreatedBy != "" {
		sqlQuery += fmt.Sprintf(" AND created_by = $%d", argPos)
		args = append(args, filter.CreatedBy)
		argPos++
	}

	if filter.Type != "" {
		sqlQuery += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, filter.Type)
		argPos++
	}

	if filter.Direction != "" {
		sqlQuery += fmt.Sprintf(" AND direction = $%d", argPos)
		args = append(args, filter.Direction)
		argPos++
	}

	if filter.AssetSymbol != "" {
		sqlQuery += fmt.Sprintf(" AND UPPER(asset_symbol) = UPPER($%d)", argPos)
		args = append(args, filter.AssetSymbol)
		argPos++
	}

	sqlQuery += orderBy(filter.Sort)

	if filter.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// DeleteAnalysis removes an analysis by id.
func (r *AnalysisRepository) DeleteAnalysis(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(sql.ErrNoRows)
	}
	return deleteByID(ctx, r.db, "analyses", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (models.Analysis, error) {
	var a models.Analysis
	var indicators []byte

	err := row.Scan(
		&a.ID,
		&a.Type,
		&a.AssetSymbol,
		&a.AssetName,
		&a.Direction,
		&a.EntryPrice,
		&a.TakeProfit,
		&a.StopLoss,
		&a.RiskRewardRatio,
		&a.ConfidenceScore,
		&a.ForecastReturn,
		&a.SwingPotential,
		&indicators,
		pq.Array(&a.ChartPatterns),
		&a.ImageURL,
		&a.NewsHeadline,
		&a.CreatedBy,
		&a.CreatedDate,
	)
	if err != nil {
		return models.Analysis{}, err
	}

	if len(indicators) > 0 {
		if err := json.Unmarshal(indicators, &a.TechnicalIndicators); err != nil {
			return models.Analysis{}, fmt.Errorf("failed to decode technical indicators: %w", err)
		}
	}
	return a, nil
}

// orderBy renders a validated sort key. Field names come from a fixed
// allow-list, so they are safe to interpolate.
func orderBy(key models.SortKey) string {
	dir := "ASC"
	if key.Descending() {
		dir = "DESC"
	}
	field := key.Field()
	if !isColumn(field) {
		field = "created_date"
	}
	return fmt.Sprintf(" ORDER BY %s %s, seq %s", field, dir, dir)
}

func isColumn(field string) bool {
	return field != "" && strings.Trim(field, "abcdefghijklmnopqrstuvwxyz_") == ""
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
