package models

import (
	"fmt"
	"strings"
)

// SortKey names a field with an optional leading "-" for descending order,
// e.g. "-created_date".
type SortKey string

const (
	SortCreatedDateDesc SortKey = "-created_date"
	SortCreatedDateAsc  SortKey = "created_date"
)

var sortableFields = map[string]bool{
	"created_date":     true,
	"confidence_score": true,
	"asset_symbol":     true,
	"forecast_return":  true,
}

// Field returns the column name without the direction prefix.
func (k SortKey) Field() string {
	return strings.TrimPrefix(string(k), "-")
}

// Descending reports whether the key sorts newest/largest first.
func (k SortKey) Descending() bool {
	return strings.HasPrefix(string(k), "-")
}

// Validate rejects unknown sort fields.
func (k SortKey) Validate() error {
	if !sortableFields[k.Field()] {
		return fmt.Errorf("unsupported sort field %q", k.Field())
	}
	return nil
}

// AnalysisFilter selects analyses. Zero-valued fields are not applied.
type AnalysisFilter struct {
	CreatedBy   string       `json:"created_by,omitempty"`
	Type        AnalysisType `json:"type,omitempty"`
	Direction   Direction    `json:"direction,omitempty"`
	AssetSymbol string       `json:"asset_symbol,omitempty"`
	Sort        SortKey      `json:"sort,omitempty"`
	Limit       int          `json:"limit,omitempty"`
}

// Validate applies defaults and checks the sort key.
func (f *AnalysisFilter) Validate() error {
	if f.Sort == "" {
		f.Sort = SortCreatedDateDesc
	}
	if err := f.Sort.Validate(); err != nil {
		return err
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	return nil
}

// WatchlistFilter selects watchlist entries.
type WatchlistFilter struct {
	CreatedBy   string    `json:"created_by,omitempty"`
	AssetType   AssetType `json:"asset_type,omitempty"`
	AssetSymbol string    `json:"asset_symbol,omitempty"`
	Sort        SortKey   `json:"sort,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// Validate applies defaults and checks the sort key. Only created_date and
// asset_symbol are sortable for watchlist entries.
func (f *WatchlistFilter) Validate() error {
	if f.Sort == "" {
		f.Sort = SortCreatedDateDesc
	}
	switch f.Sort.Field() {
	case "created_date", "asset_symbol":
	default:
		return fmt.Errorf("unsupported sort field %q", f.Sort.Field())
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	return nil
}
