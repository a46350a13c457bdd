package api

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/prompts"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// minPasswordLength is the shortest password accepted at registration.
const minPasswordLength = 8

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Validate checks the registration fields and normalizes the email.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)

	if r.Email == "" {
		return ValidationError{Field: "email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ValidationError{Field: "email", Message: "Email address is invalid"}
	}
	if len(r.Password) < minPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}
	return nil
}

// WatchlistRequest is the body of POST /api/watchlist.
type WatchlistRequest struct {
	AssetSymbol  string   `json:"asset_symbol"`
	AssetName    string   `json:"asset_name"`
	AssetType    string   `json:"asset_type"`
	TargetPrice  *float64 `json:"target_price"`
	AlertEnabled *bool    `json:"alert_enabled"`
	Notes        string   `json:"notes"`
}

// ValidateWatchlist validates a new watchlist entry and converts it.
func ValidateWatchlist(req WatchlistRequest) (models.Watchlist, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.AssetSymbol))
	if symbol == "" {
		return models.Watchlist{}, ValidationError{Field: "asset_symbol", Message: "Asset symbol is required"}
	}

	assetType := models.AssetTypeStock
	if req.AssetType != "" {
		t, ok := models.ParseAssetType(req.AssetType)
		if !ok {
			return models.Watchlist{}, ValidationError{Field: "asset_type", Message: "Asset type must be stock or crypto"}
		}
		assetType = t
	}

	if req.TargetPrice != nil && *req.TargetPrice <= 0 {
		return models.Watchlist{}, ValidationError{Field: "target_price", Message: "Target price must be positive"}
	}

	alert := true
	if req.AlertEnabled != nil {
		alert = *req.AlertEnabled
	}

	return models.Watchlist{
		AssetSymbol:  symbol,
		AssetName:    strings.TrimSpace(req.AssetName),
		AssetType:    assetType,
		TargetPrice:  req.TargetPrice,
		AlertEnabled: alert,
		Notes:        strings.TrimSpace(req.Notes),
	}, nil
}

// ParseAnalysisFilter reads type, direction, asset_symbol, sort and limit
// from a query string.
func ParseAnalysisFilter(q url.Values) (models.AnalysisFilter, error) {
	var f models.AnalysisFilter

	if raw := q.Get("type"); raw != "" {
		t := models.AnalysisType(raw)
		if !t.Valid() {
			return f, ValidationError{Field: "type", Message: "Unknown analysis type"}
		}
		f.Type = t
	}

	if raw := q.Get("direction"); raw != "" {
		d, ok := models.ParseDirection(raw)
		if !ok {
			return f, ValidationError{Field: "direction", Message: "Direction must be BUY, SELL, HOLD or WAIT"}
		}
		f.Direction = d
	}

	f.AssetSymbol = strings.ToUpper(strings.TrimSpace(q.Get("asset_symbol")))
	f.Sort = models.SortKey(q.Get("sort"))

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return f, ValidationError{Field: "limit", Message: "Limit must be a non-negative integer"}
		}
		f.Limit = limit
	}

	if err := f.Validate(); err != nil {
		return f, ValidationError{Field: "sort", Message: err.Error()}
	}
	return f, nil
}

// Inference log page sizes.
const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

// ParseInferenceLogQuery reads the inference log filters: provider, model,
// operation, status, user_id, start_date and end_date (RFC 3339), limit and
// offset.
func ParseInferenceLogQuery(q url.Values) (models.InferenceLogQuery, error) {
	query := models.InferenceLogQuery{
		Provider: strings.ToLower(strings.TrimSpace(q.Get("provider"))),
		Model:    strings.TrimSpace(q.Get("model")),
		UserID:   strings.TrimSpace(q.Get("user_id")),
		Limit:    defaultLogLimit,
	}

	if raw := strings.TrimSpace(q.Get("operation")); raw != "" {
		switch prompts.Kind(raw) {
		case prompts.KindChart, prompts.KindValueScreening, prompts.KindTopMovers, prompts.KindNewsSignals:
			query.Operation = raw
		default:
			return query, ValidationError{Field: "operation", Message: "Unknown operation"}
		}
	}

	switch raw := strings.ToLower(strings.TrimSpace(q.Get("status"))); raw {
	case "":
	case models.InferenceSuccess, models.InferenceError:
		query.Status = raw
	default:
		return query, ValidationError{Field: "status", Message: "Status must be success or error"}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxLogLimit {
			return query, ValidationError{Field: "limit", Message: fmt.Sprintf("Limit must be between 1 and %d", maxLogLimit)}
		}
		query.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return query, ValidationError{Field: "offset", Message: "Offset must be a non-negative integer"}
		}
		query.Offset = offset
	}

	var err error
	if query.StartDate, err = parseTime(q, "start_date"); err != nil {
		return query, err
	}
	if query.EndDate, err = parseTime(q, "end_date"); err != nil {
		return query, err
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return query, ValidationError{Field: "end_date", Message: "end_date must not be before start_date"}
	}
	return query, nil
}

func parseTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ValidationError{Field: key, Message: "Must be an RFC 3339 timestamp"}
	}
	return &t, nil
}
