package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
)

// InferenceLogHandler serves the admin view of language model calls.
type InferenceLogHandler struct {
	repo   store.InferenceLogs
	logger *slog.Logger
}

// NewInferenceLogHandler creates a new handler
func NewInferenceLogHandler(repo store.InferenceLogs, logger *slog.Logger) *InferenceLogHandler {
	return &InferenceLogHandler{
		repo:   repo,
		logger: logger,
	}
}

// InferenceLogPage is one page of inference logs. HasMore reports whether
// another page follows.
type InferenceLogPage struct {
	Logs    []models.InferenceLog `json:"logs"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
	HasMore bool                  `json:"has_more"`
}

// HandleInferenceLogs handles /api/admin/inference-logs: GET lists calls,
// DELETE ?before=<RFC 3339> prunes calls made before that time.
func (h *InferenceLogHandler) HandleInferenceLogs(w http.ResponseWriter, r *http.Request, s auth.Session) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.prune(w, r, s)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *InferenceLogHandler) list(w http.ResponseWriter, r *http.Request) {
	query, err := ParseInferenceLogQuery(r.URL.Query())
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}

	// One extra row tells whether another page exists.
	page := query.Limit
	query.Limit++
	logs, err := h.repo.ListInferenceLogs(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list inference logs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Failed to list inference logs"})
		return
	}

	out := InferenceLogPage{Logs: logs, Limit: page, Offset: query.Offset}
	if len(out.Logs) > page {
		out.Logs = out.Logs[:page]
		out.HasMore = true
	}
	if out.Logs == nil {
		out.Logs = []models.InferenceLog{}
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *InferenceLogHandler) prune(w http.ResponseWriter, r *http.Request, s auth.Session) {
	before, err := parseTime(r.URL.Query(), "before")
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}
	if before == nil {
		writeValidation(w, h.logger, ValidationError{Field: "before", Message: "before is required"})
		return
	}

	deleted, err := h.repo.DeleteInferenceLogsBefore(r.Context(), *before)
	if err != nil {
		h.logger.Error("failed to prune inference logs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Failed to prune inference logs"})
		return
	}

	h.logger.Info("pruned inference logs",
		"before", before.Format(time.RFC3339),
		"deleted", deleted,
		"admin", s.Email)
	writeJSON(w, h.logger, http.StatusOK, map[string]int64{"deleted": deleted})
}

// GetInferenceStats handles GET /api/admin/inference-logs/stats. It accepts
// the same filters as the list.
func (h *InferenceLogHandler) GetInferenceStats(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, err := ParseInferenceLogQuery(r.URL.Query())
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}

	stats, err := h.repo.InferenceLogStats(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to get inference stats", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Failed to get inference stats"})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}
