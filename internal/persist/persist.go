// Package persist writes normalized candidates to the analysis store.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
)

// Mode selects how a failed create affects the rest of the batch.
type Mode string

const (
	// ModeCompat drops failed records and returns the survivors.
	ModeCompat Mode = "compat"
	// ModeReport behaves like ModeCompat and lists the failures.
	ModeReport Mode = "report"
	// ModeAtomic deletes already created records on the first failure.
	ModeAtomic Mode = "atomic"
)

// ParseMode returns the mode named by raw.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeCompat, ModeReport, ModeAtomic:
		return m, nil
	case "":
		return ModeCompat, nil
	default:
		return "", fmt.Errorf("unknown persist mode %q", raw)
	}
}

// ErrNothingPersisted is returned when a non-empty batch produced no records.
var ErrNothingPersisted = errors.New("no analysis records could be saved")

// Store is the subset of the analysis repository the persister needs.
type Store interface {
	CreateAnalysis(ctx context.Context, a models.Analysis) (models.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// Recorder receives per-record outcomes. *metrics.Collector satisfies it.
type Recorder interface {
	RecordPersisted(analysisType string)
	RecordDropped(analysisType string)
}

// Failure describes one candidate that could not be created.
type Failure struct {
	Index       int    `json:"index"`
	AssetSymbol string `json:"asset_symbol"`
	Error       string `json:"error"`
	err         error
}

// Unwrap returns the store error.
func (f Failure) Unwrap() error { return f.err }

// Outcome is the result of a batch. Records keep the candidates' relative
// order. Failures is only populated in ModeReport.
type Outcome struct {
	Records  []models.AnalysisView `json:"records"`
	Failures []Failure             `json:"partial_failures,omitempty"`
}

// PartialFailure is returned in ModeAtomic when a create fails. Records
// created before the failure have been deleted unless listed in Orphaned.
type PartialFailure struct {
	Failure  Failure
	Orphaned []string
}

func (e *PartialFailure) Error() string {
	msg := fmt.Sprintf("persist record %d (%s): %s", e.Failure.Index, e.Failure.AssetSymbol, e.Failure.Error)
	if len(e.Orphaned) > 0 {
		msg += fmt.Sprintf("; %d records could not be rolled back", len(e.Orphaned))
	}
	return msg
}

func (e *PartialFailure) Unwrap() error { return e.Failure.err }

// Persister creates analysis records for normalized candidates.
type Persister struct {
	store    Store
	mode     Mode
	logger   *slog.Logger
	recorder Recorder
}

// New constructs a Persister. recorder may be nil.
func New(store Store, mode Mode, logger *slog.Logger, recorder Recorder) *Persister {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if mode == "" {
		mode = ModeCompat
	}
	return &Persister{store: store, mode: mode, logger: logger, recorder: recorder}
}

// Mode reports the configured mode.
func (p *Persister) Mode() Mode {
	return p.mode
}

// PersistAll creates one record per candidate, owned by owner. Creates run
// sequentially. A cancelled context stops further creates and returns the
// context error along with what was already written. When every create of a
// non-empty batch fails in ModeCompat or ModeReport, the error wraps
// ErrNothingPersisted.
func (p *Persister) PersistAll(ctx context.Context, owner string, candidates []normalize.Candidate) (Outcome, error) {
	out := Outcome{Records: make([]models.AnalysisView, 0, len(candidates))}
	var lastErr error

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			if p.mode == ModeAtomic {
				p.rollback(ctx, out.Records)
				out.Records = out.Records[:0]
			}
			return out, err
		}

		record := c.Analysis
		record.CreatedBy = owner

		created, err := p.store.CreateAnalysis(ctx, record)
		if err != nil {
			lastErr = err
			failure := Failure{Index: i, AssetSymbol: record.AssetSymbol, Error: err.Error(), err: err}
			p.recorder.RecordDropped(string(record.Type))
			p.logger.Warn("failed to persist analysis",
				"index", i,
				"asset_symbol", record.AssetSymbol,
				"type", record.Type,
				"mode", p.mode,
				"error", err)

			switch p.mode {
			case ModeAtomic:
				orphaned := p.rollback(ctx, out.Records)
				return Outcome{Records: []models.AnalysisView{}}, &PartialFailure{Failure: failure, Orphaned: orphaned}
			case ModeReport:
				out.Failures = append(out.Failures, failure)
			}
			continue
		}

		p.recorder.RecordPersisted(string(created.Type))
		out.Records = append(out.Records, models.AnalysisView{Analysis: created, Extras: c.Extras})
	}

	if len(candidates) > 0 && len(out.Records) == 0 {
		return out, fmt.Errorf("%w: %w", ErrNothingPersisted, lastErr)
	}
	return out, nil
}

// rollback deletes created records and returns the ids it could not delete.
// It runs detached from ctx so a cancelled request still cleans up.
func (p *Persister) rollback(ctx context.Context, created []models.AnalysisView) []string {
	ctx = context.WithoutCancel(ctx)

	var orphaned []string
	for _, r := range created {
		if err := p.store.DeleteAnalysis(ctx, r.ID); err != nil {
			p.logger.Error("failed to roll back analysis", "id", r.ID, "error", err)
			orphaned = append(orphaned, r.ID)
		}
	}
	return orphaned
}

type nopRecorder struct{}

func (nopRecorder) RecordPersisted(string) {}
func (nopRecorder) RecordDropped(string)   {}
