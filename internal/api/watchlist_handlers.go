package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/views"
	"github.com/tradesnap/tradesnap/internal/watchlist"
)

// WatchlistHandler handles watchlist requests
type WatchlistHandler struct {
	watchlists store.Watchlists
	analyses   store.Analyses
	logger     *slog.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlists store.Watchlists, analyses store.Analyses, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlists: watchlists,
		analyses:   analyses,
		logger:     logger,
	}
}

// WatchlistResponse is a filtered watchlist with its counts.
type WatchlistResponse struct {
	Items  []models.Watchlist   `json:"items"`
	Counts views.WatchlistCount `json:"counts"`
}

// HandleWatchlist handles GET and POST /api/watchlist
func (h *WatchlistHandler) HandleWatchlist(w http.ResponseWriter, r *http.Request, s auth.Session) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, s)
	case http.MethodPost:
		h.create(w, r, s)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WatchlistHandler) list(w http.ResponseWriter, r *http.Request, s auth.Session) {
	filter := models.WatchlistFilter{CreatedBy: s.UserID, Sort: models.SortKey(r.URL.Query().Get("sort"))}
	if raw := r.URL.Query().Get("asset_type"); raw != "" {
		t, ok := models.ParseAssetType(raw)
		if !ok {
			writeValidation(w, h.logger, ValidationError{Field: "asset_type", Message: "Asset type must be stock or crypto"})
			return
		}
		filter.AssetType = t
	}
	if err := filter.Validate(); err != nil {
		writeValidation(w, h.logger, ValidationError{Field: "sort", Message: err.Error()})
		return
	}

	items, err := h.watchlists.ListWatchlist(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list watchlist", "error", err)
		http.Error(w, "Failed to list watchlist", http.StatusInternalServerError)
		return
	}

	// Counts cover the whole list; search only narrows the items.
	counts := views.WatchlistTypeCounts(items)
	writeJSON(w, h.logger, http.StatusOK, WatchlistResponse{
		Items:  views.SearchWatchlist(items, r.URL.Query().Get("search")),
		Counts: counts,
	})
}

func (h *WatchlistHandler) create(w http.ResponseWriter, r *http.Request, s auth.Session) {
	var req WatchlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidation(w, h.logger, err)
		return
	}

	entry, err := ValidateWatchlist(req)
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}
	entry.CreatedBy = s.UserID

	h.save(w, r, entry)
}

// FromAnalysis handles POST /api/watchlist/from-analysis/{id}
func (h *WatchlistHandler) FromAnalysis(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r.URL.Path, "/api/watchlist/from-analysis/")
	if !ok {
		http.Error(w, "Analysis ID required", http.StatusBadRequest)
		return
	}

	var hint watchlist.Hint
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &hint); err != nil {
			writeValidation(w, h.logger, err)
			return
		}
	}
	if hint.AssetType != "" {
		t, ok := models.ParseAssetType(string(hint.AssetType))
		if !ok {
			writeValidation(w, h.logger, ValidationError{Field: "asset_type", Message: "Asset type must be stock or crypto"})
			return
		}
		hint.AssetType = t
	}
	hint.Timeframe = strings.ToUpper(strings.TrimSpace(hint.Timeframe))

	a, err := h.analyses.GetAnalysis(r.Context(), id)
	if err == nil && a.CreatedBy != s.UserID {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Analysis not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get analysis", "id", id, "error", err)
		http.Error(w, "Failed to get analysis", http.StatusInternalServerError)
		return
	}

	entry := watchlist.FromAnalysis(a, hint)
	entry.CreatedBy = s.UserID
	h.save(w, r, entry)
}

func (h *WatchlistHandler) save(w http.ResponseWriter, r *http.Request, entry models.Watchlist) {
	created, err := h.watchlists.CreateWatchlist(r.Context(), entry)
	if err != nil {
		h.logger.Error("failed to create watchlist entry", "error", err)
		http.Error(w, "Failed to add to watchlist", http.StatusInternalServerError)
		return
	}

	h.logger.Info("watchlist entry added", "id", created.ID, "asset_symbol", created.AssetSymbol, "user_id", created.CreatedBy)
	writeJSON(w, h.logger, http.StatusCreated, created)
}

// HandleEntry handles DELETE /api/watchlist/{id}
func (h *WatchlistHandler) HandleEntry(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r.URL.Path, "/api/watchlist/")
	if !ok {
		http.Error(w, "Watchlist ID required", http.StatusBadRequest)
		return
	}

	entry, err := h.watchlists.GetWatchlist(r.Context(), id)
	if err == nil && entry.CreatedBy != s.UserID {
		err = store.ErrNotFound
	}
	if err == nil {
		err = h.watchlists.DeleteWatchlist(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Watchlist entry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete watchlist entry", "id", id, "error", err)
		http.Error(w, "Failed to delete watchlist entry", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
