package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tradesnap/tradesnap/internal/models"
)

// WatchlistRepository handles watchlist database operations.
type WatchlistRepository struct {
	db *sql.DB
}

// NewWatchlistRepository creates a new repository.
func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

const watchlistColumns = `id, asset_symbol, asset_name, asset_type, target_price, alert_enabled,
	notes, created_by, created_date`

// CreateWatchlist inserts w, assigning its id and created date.
func (r *WatchlistRepository) CreateWatchlist(ctx context.Context, w models.Watchlist) (models.Watchlist, error) {
	w.ID = uuid.NewString()
	query := `
		INSERT INTO watchlist (
			id, asset_symbol, asset_name, asset_type, target_price, alert_enabled, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_date
	`

	err := r.db.QueryRowContext(ctx, query,
		w.ID,
		w.AssetSymbol,
		w.AssetName,
		w.AssetType,
		w.TargetPrice,
		w.AlertEnabled,
		w.Notes,
		w.CreatedBy,
	).Scan(&w.CreatedDate)
	if err != nil {
		return models.Watchlist{}, fmt.Errorf("failed to insert watchlist entry: %w", err)
	}

	return w, nil
}

// GetWatchlist returns one entry by id.
func (r *WatchlistRepository) GetWatchlist(ctx context.Context, id string) (models.Watchlist, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Watchlist{}, notFound(sql.ErrNoRows)
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+watchlistColumns+" FROM watchlist WHERE id = $1", id)
	w, err := scanWatchlist(row)
	if err != nil {
		return models.Watchlist{}, notFound(err)
	}
	return w, nil
}

// ListWatchlist returns entries matching filter.
func (r *WatchlistRepository) ListWatchlist(ctx context.Context, filter models.WatchlistFilter) ([]models.Watchlist, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	sqlQuery := "SELECT " + watchlistColumns + " FROM watchlist WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.CreatedBy != "" {
		sqlQuery += fmt.Sprintf(" AND created_by = $%d", argPos)
		args = append(args, filter.CreatedBy)
		argPos++
	}

	if filter.AssetType != "" {
		sqlQuery += fmt.Sprintf(" AND asset_type = $%d", argPos)
		args = append(args, filter.AssetType)
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
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	items := []models.Watchlist{}
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		items = append(items, w)
	}

	return items, rows.Err()
}

// DeleteWatchlist removes an entry by id.
func (r *WatchlistRepository) DeleteWatchlist(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(sql.ErrNoRows)
	}
	return deleteByID(ctx, r.db, "watchlist", id)
}

func scanWatchlist(row rowScanner) (models.Watchlist, error) {
	var w models.Watchlist
	err := row.Scan(
		&w.ID,
		&w.AssetSymbol,
		&w.AssetName,
		&w.AssetType,
		&w.TargetPrice,
		&w.AlertEnabled,
		&w.Notes,
		&w.CreatedBy,
		&w.CreatedDate,
	)
	return w, err
}
