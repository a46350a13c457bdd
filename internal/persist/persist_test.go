package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
)

var errCreate = errors.New("connection reset")

// fakeStore fails the creates whose 1-based call number is in failOn.
type fakeStore struct {
	mu         sync.Mutex
	calls      int
	failOn     map[int]bool
	failDelete bool
	created    []models.Analysis
	deleted    []string
	onCreate   func(call int)
}

func (s *fakeStore) CreateAnalysis(_ context.Context, a models.Analysis) (models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.onCreate != nil {
		s.onCreate(s.calls)
	}
	if s.failOn[s.calls] {
		return models.Analysis{}, errCreate
	}
	a.ID = fmt.Sprintf("id-%d", s.calls)
	a.CreatedDate = time.Date(2024, 1, 1, 0, 0, s.calls, 0, time.UTC)
	s.created = append(s.created, a)
	return a, nil
}

func (s *fakeStore) DeleteAnalysis(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("delete failed")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type countingRecorder struct {
	persisted, dropped int
}

func (r *countingRecorder) RecordPersisted(string) { r.persisted++ }
func (r *countingRecorder) RecordDropped(string)   { r.dropped++ }

func candidates(symbols ...string) []normalize.Candidate {
	out := make([]normalize.Candidate, len(symbols))
	for i, s := range symbols {
		out[i] = normalize.Candidate{
			Analysis: models.Analysis{Type: models.AnalysisTypeAssetScreening, AssetSymbol: s, Direction: models.DirectionBuy},
			Extras:   map[string]any{"volume_status": "HIGH"},
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func symbolsOf(records []models.AnalysisView) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.AssetSymbol
	}
	return out
}

func TestPersistAllCompatDropsFailuresInOrder(t *testing.T) {
	store := &fakeStore{failOn: map[int]bool{3: true}}
	recorder := &countingRecorder{}
	p := New(store, ModeCompat, discardLogger(), recorder)

	out, err := p.PersistAll(context.Background(), "owner@example.com", candidates("A", "B", "C", "D", "E"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "D", "E"}, symbolsOf(out.Records))
	assert.Empty(t, out.Failures)
	assert.Equal(t, 4, recorder.persisted)
	assert.Equal(t, 1, recorder.dropped)

	for _, r := range out.Records {
		assert.Equal(t, "owner@example.com", r.CreatedBy)
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CreatedDate.IsZero())
		assert.Equal(t, "HIGH", r.Extras["volume_status"])
	}
}

func TestPersistAllReportListsFailures(t *testing.T) {
	store := &fakeStore{failOn: map[int]bool{2: true, 4: true}}
	p := New(store, ModeReport, discardLogger(), nil)

	out, err := p.PersistAll(context.Background(), "u1", candidates("A", "B", "C", "D"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C"}, symbolsOf(out.Records))
	require.Len(t, out.Failures, 2)
	assert.Equal(t, 1, out.Failures[0].Index)
	assert.Equal(t, "B", out.Failures[0].AssetSymbol)
	assert.Equal(t, 3, out.Failures[1].Index)
	assert.Equal(t, errCreate, out.Failures[1].Unwrap())
}

func TestPersistAllFailsWhenNothingIsCreated(t *testing.T) {
	for _, mode := range []Mode{ModeCompat, ModeReport} {
		store := &fakeStore{failOn: map[int]bool{1: true, 2: true}}
		p := New(store, mode, discardLogger(), nil)

		out, err := p.PersistAll(context.Background(), "u1", candidates("A", "B"))
		assert.ErrorIs(t, err, ErrNothingPersisted, mode)
		assert.ErrorIs(t, err, errCreate, mode)
		assert.Empty(t, out.Records, mode)
	}
}

func TestPersistAllAtomicRollsBack(t *testing.T) {
	store := &fakeStore{failOn: map[int]bool{3: true}}
	p := New(store, ModeAtomic, discardLogger(), nil)

	out, err := p.PersistAll(context.Background(), "u1", candidates("A", "B", "C", "D"))

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, errCreate)
	assert.Equal(t, 2, partial.Failure.Index)
	assert.Empty(t, partial.Orphaned)
	assert.Empty(t, out.Records)
	assert.Equal(t, []string{"id-1", "id-2"}, store.deleted)
	assert.Equal(t, 3, store.calls, "no creates after the failure")
}

func TestPersistAllAtomicReportsOrphans(t *testing.T) {
	store := &fakeStore{failOn: map[int]bool{2: true}, failDelete: true}
	p := New(store, ModeAtomic, discardLogger(), nil)

	_, err := p.PersistAll(context.Background(), "u1", candidates("A", "B"))

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"id-1"}, partial.Orphaned)
	assert.Contains(t, err.Error(), "could not be rolled back")
}

func TestPersistAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{onCreate: func(call int) {
		if call == 2 {
			cancel()
		}
	}}
	p := New(store, ModeCompat, discardLogger(), nil)

	out, err := p.PersistAll(ctx, "u1", candidates("A", "B", "C", "D"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"A", "B"}, symbolsOf(out.Records))
	assert.Equal(t, 2, store.calls)
}

func TestPersistAllEmpty(t *testing.T) {
	p := New(&fakeStore{}, ModeCompat, discardLogger(), nil)
	out, err := p.PersistAll(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.NotNil(t, out.Records)
	assert.Empty(t, out.Records)
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"": ModeCompat, "compat": ModeCompat, "REPORT": ModeReport, " atomic ": ModeAtomic} {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("eventual")
	assert.Error(t, err)
}
