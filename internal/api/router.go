package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/uploads"
)

// Deps are the collaborators the API routes need. FileServer is optional
// and serves stored uploads under FilePrefix.
type Deps struct {
	Store         store.Store
	Analyzer      Analyzer
	Files         uploads.Store
	FileServer    http.Handler
	FilePrefix    string
	Authenticator *auth.Authenticator
}

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, deps Deps, logger *slog.Logger) {
	authHandler := NewAuthHandler(deps.Store.Users, deps.Authenticator, logger)
	uploadHandler := NewUploadHandler(deps.Files, logger)
	analysisHandler := NewAnalysisHandler(deps.Analyzer, deps.Store.Analyses, logger)
	watchlistHandler := NewWatchlistHandler(deps.Store.Watchlists, deps.Store.Analyses, logger)
	dashboardHandler := NewDashboardHandler(deps.Store, logger)
	inferenceLogHandler := NewInferenceLogHandler(deps.Store.InferenceLogs, logger)

	authMiddleware := auth.NewMiddleware(deps.Authenticator, logger)
	protected := authMiddleware.Require
	admin := authMiddleware.RequireAdmin

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/logout", protected(authHandler.Logout))
	mux.Handle("/api/auth/me", protected(authHandler.Me))

	mux.Handle("/api/uploads", protected(uploadHandler.Upload))

	// Analysis routes
	mux.Handle("/api/analyses", protected(analysisHandler.ListAnalyses))
	mux.Handle("/api/analyses/", protected(func(w http.ResponseWriter, r *http.Request, s auth.Session) {
		switch strings.TrimPrefix(r.URL.Path, "/api/analyses/") {
		case "chart":
			analysisHandler.AnalyzeChart(w, r, s)
		case "screen":
			analysisHandler.ScreenAssets(w, r, s)
		case "movers":
			analysisHandler.TopMovers(w, r, s)
		case "news":
			analysisHandler.NewsSignals(w, r, s)
		case "stats":
			analysisHandler.GetStats(w, r, s)
		default:
			analysisHandler.HandleAnalysis(w, r, s)
		}
	}))

	// Watchlist routes
	mux.Handle("/api/watchlist", protected(watchlistHandler.HandleWatchlist))
	mux.Handle("/api/watchlist/", protected(func(w http.ResponseWriter, r *http.Request, s auth.Session) {
		if strings.HasPrefix(r.URL.Path, "/api/watchlist/from-analysis/") {
			watchlistHandler.FromAnalysis(w, r, s)
			return
		}
		watchlistHandler.HandleEntry(w, r, s)
	}))

	mux.Handle("/api/dashboard", protected(dashboardHandler.GetDashboard))

	// Admin routes
	mux.Handle("/api/admin/inference-logs", admin(inferenceLogHandler.HandleInferenceLogs))
	mux.Handle("/api/admin/inference-logs/stats", admin(inferenceLogHandler.GetInferenceStats))

	if deps.FileServer != nil && deps.FilePrefix != "" {
		mux.Handle(deps.FilePrefix, deps.FileServer)
	}
}
