package api

import (
	"log/slog"
	"net/http"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/views"
)

// DashboardHandler serves the landing page summary
type DashboardHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(s store.Store, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{store: s, logger: logger}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	user, err := h.store.Users.GetUser(ctx, s.UserID)
	if err != nil {
		// Fall back to the name carried in the token.
		h.logger.Warn("failed to load user for dashboard", "user_id", s.UserID, "error", err)
		user = s.User()
	}

	recent, err := h.store.Analyses.ListAnalyses(ctx, models.AnalysisFilter{
		CreatedBy: s.UserID,
		Sort:      models.SortCreatedDateDesc,
		Limit:     views.RecentLimit,
	})
	if err != nil {
		h.logger.Error("failed to list recent analyses", "error", err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	items, err := h.store.Watchlists.ListWatchlist(ctx, models.WatchlistFilter{CreatedBy: s.UserID, Sort: models.SortCreatedDateDesc})
	if err != nil {
		h.logger.Error("failed to list watchlist", "error", err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, views.BuildDashboard(user, recent, items))
}
