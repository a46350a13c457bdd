package models

import (
	"strings"
	"time"
)

// AssetType classifies a watchlist entry.
type AssetType string

const (
	AssetTypeStock  AssetType = "stock"
	AssetTypeCrypto AssetType = "crypto"
)

// ParseAssetType accepts "stock"/"stocks" and "crypto" in any case.
func ParseAssetType(raw string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stock", "stocks":
		return AssetTypeStock, true
	case "crypto":
		return AssetTypeCrypto, true
	}
	return "", false
}

// Watchlist is a user-tracked asset.
type Watchlist struct {
	ID           string    `json:"id"`
	AssetSymbol  string    `json:"asset_symbol"`
	AssetName    string    `json:"asset_name"`
	AssetType    AssetType `json:"asset_type"`
	TargetPrice  *float64  `json:"target_price"`
	AlertEnabled bool      `json:"alert_enabled"`
	Notes        string    `json:"notes"`
	CreatedBy    string    `json:"created_by"`
	CreatedDate  time.Time `json:"created_date"`
}
