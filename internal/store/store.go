// Package store defines the persistence contracts shared by the Postgres
// repositories and the in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tradesnap/tradesnap/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("record already exists")
)

// Analyses stores analysis records. Create assigns ID and CreatedDate.
type Analyses interface {
	CreateAnalysis(ctx context.Context, a models.Analysis) (models.Analysis, error)
	GetAnalysis(ctx context.Context, id string) (models.Analysis, error)
	ListAnalyses(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// Watchlists stores watchlist entries.
type Watchlists interface {
	CreateWatchlist(ctx context.Context, w models.Watchlist) (models.Watchlist, error)
	GetWatchlist(ctx context.Context, id string) (models.Watchlist, error)
	ListWatchlist(ctx context.Context, filter models.WatchlistFilter) ([]models.Watchlist, error)
	DeleteWatchlist(ctx context.Context, id string) error
}

// Users stores accounts. Emails are unique and compared lower-cased.
type Users interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// InferenceLogs stores one row per language model call.
type InferenceLogs interface {
	CreateInferenceLog(ctx context.Context, log models.InferenceLog) error
	ListInferenceLogs(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error)
	InferenceLogStats(ctx context.Context, query models.InferenceLogQuery) (*models.InferenceLogStats, error)
	// DeleteInferenceLogsBefore removes rows created before cutoff and
	// reports how many were deleted.
	DeleteInferenceLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store groups the repositories the service needs.
type Store struct {
	Analyses      Analyses
	Watchlists    Watchlists
	Users         Users
	InferenceLogs InferenceLogs
}
