package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/tradesnap/tradesnap/internal/analysis"
	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
	"github.com/tradesnap/tradesnap/internal/prompts"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/uploads"
	"github.com/tradesnap/tradesnap/internal/views"
)

// maxMultipartMemory is how much of a multipart body is held in memory
// before spilling to temporary files.
const maxMultipartMemory = 10 << 20

// Analyzer runs the analysis pipelines. *analysis.Service satisfies it.
type Analyzer interface {
	AnalyzeChart(ctx context.Context, owner string, req analysis.ChartRequest) (analysis.Result, error)
	ScreenAssets(ctx context.Context, owner string, req analysis.ScanRequest) (analysis.Result, error)
	TopMovers(ctx context.Context, owner string, req analysis.ScanRequest) (analysis.Result, error)
	NewsSignals(ctx context.Context, owner string) (analysis.Result, error)
}

// AnalysisHandler handles analysis requests
type AnalysisHandler struct {
	analyzer Analyzer
	analyses store.Analyses
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, analyses store.Analyses, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		analyses: analyses,
		logger:   logger,
	}
}

// ScanRequest is the body of the screen and movers endpoints.
type ScanRequest struct {
	AssetType string `json:"asset_type"`
	Timeframe string `json:"timeframe"`
}

func (r ScanRequest) toScan() analysis.ScanRequest {
	class := prompts.AssetClassStocks
	if strings.EqualFold(strings.TrimSpace(r.AssetType), "crypto") {
		class = prompts.AssetClassCrypto
	}
	return analysis.ScanRequest{AssetClass: class, Timeframe: strings.ToUpper(strings.TrimSpace(r.Timeframe))}
}

// chartJSONRequest is the JSON form of a chart request, for images uploaded
// earlier through /api/uploads.
type chartJSONRequest struct {
	FileURL    string          `json:"file_url"`
	RiskReward riskRewardValue `json:"risk_reward"`
}

// riskRewardValue accepts the ratio as a string ("1:3", "3") or a number.
type riskRewardValue string

func (v *riskRewardValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = riskRewardValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("risk_reward must be a number or a ratio like \"1:3\"")
	}
	*v = riskRewardValue(n.String())
	return nil
}

// AnalyzeChart handles POST /api/analyses/chart
func (h *AnalysisHandler) AnalyzeChart(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		req   analysis.ChartRequest
		rawRR string
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeValidation(w, h.logger, ValidationError{Field: "file", Message: "invalid multipart form"})
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			req.Upload = &analysis.Upload{Name: header.Filename, ContentType: partContentType(header), Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			writeValidation(w, h.logger, ValidationError{Field: "file", Message: err.Error()})
			return
		}
		req.FileURL = r.FormValue("file_url")
		rawRR = r.FormValue("risk_reward")
	} else {
		var body chartJSONRequest
		if err := decodeJSON(r, &body); err != nil {
			writeValidation(w, h.logger, err)
			return
		}
		req.FileURL = body.FileURL
		rawRR = string(body.RiskReward)
	}

	if req.Upload == nil && strings.TrimSpace(req.FileURL) == "" {
		writeValidation(w, h.logger, ValidationError{Field: "file", Message: "A chart image is required"})
		return
	}

	rr, err := ParseRiskReward(rawRR)
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}
	req.RiskReward = rr

	res, err := h.analyzer.AnalyzeChart(r.Context(), s.UserID, req)
	h.respond(w, r, res, err)
}

// ScreenAssets handles POST /api/analyses/screen
func (h *AnalysisHandler) ScreenAssets(w http.ResponseWriter, r *http.Request, s auth.Session) {
	h.scan(w, r, s, h.analyzer.ScreenAssets)
}

// TopMovers handles POST /api/analyses/movers
func (h *AnalysisHandler) TopMovers(w http.ResponseWriter, r *http.Request, s auth.Session) {
	h.scan(w, r, s, h.analyzer.TopMovers)
}

// NewsSignals handles POST /api/analyses/news
func (h *AnalysisHandler) NewsSignals(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := h.analyzer.NewsSignals(r.Context(), s.UserID)
	h.respond(w, r, res, err)
}

type scanFunc func(ctx context.Context, owner string, req analysis.ScanRequest) (analysis.Result, error)

func (h *AnalysisHandler) scan(w http.ResponseWriter, r *http.Request, s auth.Session, run scanFunc) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScanRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeValidation(w, h.logger, err)
			return
		}
	}

	res, err := run(r.Context(), s.UserID, req.toScan())
	h.respond(w, r, res, err)
}

func (h *AnalysisHandler) respond(w http.ResponseWriter, r *http.Request, res analysis.Result, err error) {
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

// writeAnalysisError maps pipeline errors onto HTTP statuses.
func (h *AnalysisHandler) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *normalize.ValidationError
		netErr *analysis.NetworkError
		reqErr *analysis.RequestError
	)

	switch {
	case errors.As(err, &verr):
		writeError(w, h.logger, http.StatusUnprocessableEntity, ErrorResponse{Error: verr.Message, Detail: strings.Join(verr.Missing, ", ")})
	case errors.Is(err, uploads.ErrNotImage):
		writeError(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: "file"})
	case errors.Is(err, uploads.ErrTooLarge):
		writeError(w, h.logger, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Field: "file"})
	case errors.As(err, &reqErr):
		writeError(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: reqErr.Error()})
	case errors.As(err, &netErr):
		writeError(w, h.logger, http.StatusBadGateway, ErrorResponse{Error: netErr.Message, Detail: netErr.Detail})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away; nothing useful can be written.
		h.logger.Warn("analysis request cancelled", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		h.logger.Error("analysis failed", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Analysis failed. Please try again."})
	}
}

// ListAnalyses handles GET /api/analyses
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := ParseAnalysisFilter(r.URL.Query())
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}
	filter.CreatedBy = s.UserID

	list, err := h.analyses.ListAnalyses(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list analyses", "error", err)
		http.Error(w, "Failed to list analyses", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Analysis{}
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"analyses": list,
		"total":    len(list),
	})
}

// GetStats handles GET /api/analyses/stats
func (h *AnalysisHandler) GetStats(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := ParseAnalysisFilter(r.URL.Query())
	if err != nil {
		writeValidation(w, h.logger, err)
		return
	}
	filter.CreatedBy = s.UserID

	list, err := h.analyses.ListAnalyses(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list analyses", "error", err)
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, views.Stats(list))
}

// HandleAnalysis handles GET and DELETE /api/analyses/{id}
func (h *AnalysisHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request, s auth.Session) {
	id, ok := pathID(r.URL.Path, "/api/analyses/")
	if !ok {
		http.Error(w, "Analysis ID required", http.StatusBadRequest)
		return
	}

	a, err := h.analyses.GetAnalysis(r.Context(), id)
	if err == nil && a.CreatedBy != s.UserID && !s.IsAdmin() {
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

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, a)
	case http.MethodDelete:
		if err := h.analyses.DeleteAnalysis(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("failed to delete analysis", "id", id, "error", err)
			http.Error(w, "Failed to delete analysis", http.StatusInternalServerError)
			return
		}
		h.logger.Info("analysis deleted", "id", id, "user_id", s.UserID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ParseRiskReward accepts a minimum risk-reward target as "3", "3.5" or
// "1:3". An empty value selects the default.
func ParseRiskReward(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if lhs, rhs, ok := strings.Cut(raw, ":"); ok {
		if strings.TrimSpace(lhs) != "1" {
			return 0, ValidationError{Field: "risk_reward", Message: "Risk-reward must be written as 1:N"}
		}
		raw = strings.TrimSpace(rhs)
	}
	rr, err := strconv.ParseFloat(raw, 64)
	if err != nil || !prompts.ValidRiskReward(rr) {
		return 0, ValidationError{Field: "risk_reward", Message: "Risk-reward must be a number of at least 1"}
	}
	return rr, nil
}

func partContentType(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}
