// Package analysis runs the prompt, model, normalize and persist pipeline
// for each kind of trading analysis.
package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/tradesnap/tradesnap/internal/errtrack"
	"github.com/tradesnap/tradesnap/internal/llm"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
	"github.com/tradesnap/tradesnap/internal/persist"
	"github.com/tradesnap/tradesnap/internal/prompts"
	"github.com/tradesnap/tradesnap/internal/uploads"
	"github.com/tradesnap/tradesnap/internal/views"
)

// Recorder receives validation failures. *metrics.Collector satisfies it.
type Recorder interface {
	ValidationFailure(kind string)
}

// Service runs analyses on behalf of users.
type Service struct {
	invoker   llm.Invoker
	uploads   uploads.Store
	persister *persist.Persister
	tracker   errtrack.Tracker
	metrics   Recorder
	logger    *slog.Logger
}

// Deps are the collaborators of a Service. Tracker and Metrics are optional.
type Deps struct {
	Invoker   llm.Invoker
	Uploads   uploads.Store
	Persister *persist.Persister
	Tracker   errtrack.Tracker
	Metrics   Recorder
}

// NewService creates a Service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	s := &Service{
		invoker:   deps.Invoker,
		uploads:   deps.Uploads,
		persister: deps.Persister,
		tracker:   deps.Tracker,
		metrics:   deps.Metrics,
		logger:    logger,
	}
	if s.tracker == nil {
		s.tracker = errtrack.Noop{}
	}
	return s
}

// Upload is a chart image sent with the request.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// ChartRequest asks for a chart analysis. Either Upload or FileURL must be
// set; FileURL refers to an image saved earlier through the upload store.
type ChartRequest struct {
	Upload     *Upload
	FileURL    string
	RiskReward float64
}

// ScanRequest asks for a market scan.
type ScanRequest struct {
	AssetClass prompts.AssetClass
	Timeframe  string
}

// Result is a persisted batch together with its display aggregates.
type Result struct {
	Kind     prompts.Kind                               `json:"kind"`
	Records  []models.AnalysisView                      `json:"records"`
	Failures []persist.Failure                          `json:"partial_failures,omitempty"`
	Summary  views.ResultSummary                        `json:"summary"`
	Tabs     views.AssetClassSplit[models.AnalysisView] `json:"tabs"`
	FileURL  string                                     `json:"file_url,omitempty"`
}

// AnalyzeChart uploads the chart image if needed and analyzes it.
func (s *Service) AnalyzeChart(ctx context.Context, owner string, req ChartRequest) (Result, error) {
	fileURL := req.FileURL
	if req.Upload != nil {
		if !uploads.IsImage(req.Upload.ContentType) {
			return Result{}, uploads.ErrNotImage
		}
		u, err := s.uploads.Save(ctx, req.Upload.Name, req.Upload.ContentType, req.Upload.Body)
		if err != nil {
			if errors.Is(err, uploads.ErrNotImage) || errors.Is(err, uploads.ErrTooLarge) {
				return Result{}, err
			}
			return Result{}, s.fail(ctx, prompts.KindChart, owner, err)
		}
		fileURL = u
	}

	p, err := prompts.Build(prompts.Request{
		Kind:             prompts.KindChart,
		RiskRewardTarget: req.RiskReward,
		ImageURL:         fileURL,
	})
	if err != nil {
		return Result{}, &RequestError{Err: err}
	}

	res, err := s.run(ctx, owner, p)
	res.FileURL = fileURL
	return res, err
}

// ScreenAssets runs the underpriced/overpriced valuation scan.
func (s *Service) ScreenAssets(ctx context.Context, owner string, req ScanRequest) (Result, error) {
	return s.scan(ctx, owner, prompts.Request{Kind: prompts.KindValueScreening, AssetClass: req.AssetClass, Timeframe: req.Timeframe})
}

// TopMovers runs the momentum scan.
func (s *Service) TopMovers(ctx context.Context, owner string, req ScanRequest) (Result, error) {
	return s.scan(ctx, owner, prompts.Request{Kind: prompts.KindTopMovers, AssetClass: req.AssetClass})
}

// NewsSignals runs the news sentiment scan.
func (s *Service) NewsSignals(ctx context.Context, owner string) (Result, error) {
	return s.scan(ctx, owner, prompts.Request{Kind: prompts.KindNewsSignals})
}

func (s *Service) scan(ctx context.Context, owner string, req prompts.Request) (Result, error) {
	p, err := prompts.Build(req)
	if err != nil {
		return Result{}, &RequestError{Err: err}
	}
	return s.run(ctx, owner, p)
}

func (s *Service) run(ctx context.Context, owner string, p prompts.Prompt) (Result, error) {
	ctx = errtrack.WithUser(ctx, owner)
	result := Result{Kind: p.Kind}

	raw, err := s.invoker.Invoke(ctx, llm.FromPrompt(p, owner))
	if err != nil {
		return result, s.fail(ctx, p.Kind, owner, err)
	}

	candidates, err := normalize.Normalize(raw, p).Unwrap()
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			return result, s.invalid(p.Kind, owner, verr)
		}
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	outcome, err := s.persister.PersistAll(ctx, owner, candidates)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		return result, s.fail(ctx, p.Kind, owner, err)
	}

	result.Records = outcome.Records
	if result.Records == nil {
		result.Records = []models.AnalysisView{}
	}
	result.Failures = outcome.Failures
	result.Summary = views.Summarize(result.Records)
	result.Tabs = views.SplitByAssetClass(result.Records, views.ViewSymbol)

	s.logger.Info("analysis complete",
		"operation", p.Kind,
		"user_id", owner,
		"candidates", len(candidates),
		"persisted", len(result.Records),
		"failed", len(outcome.Failures))

	return result, nil
}

func (s *Service) invalid(kind prompts.Kind, owner string, verr *normalize.ValidationError) error {
	s.logger.Warn("model response failed validation",
		"operation", kind,
		"user_id", owner,
		"missing", verr.Missing)
	if s.metrics != nil {
		s.metrics.ValidationFailure(string(kind))
	}

	if kind == prompts.KindChart {
		return &normalize.ValidationError{
			Missing: verr.Missing,
			Message: "Chart analysis failed. " + verr.Message,
		}
	}
	return verr
}

func (s *Service) fail(ctx context.Context, kind prompts.Kind, owner string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	s.logger.Error("analysis failed", "operation", kind, "user_id", owner, "error", err)
	s.tracker.CaptureError(ctx, err, map[string]string{"operation": string(kind)})
	return networkError(kind, err)
}

// RequestError reports analysis parameters that cannot be used.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
