package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradesnap/tradesnap/internal/models"
)

// Memory is a process-local implementation of every repository. It is used
// in tests and when no DATABASE_URL is configured.
type Memory struct {
	mu        sync.RWMutex
	now       func() time.Time
	seq       int64
	analyses  map[string]memAnalysis
	watchlist map[string]memWatchlist
	users     map[string]models.User
	logs      []models.InferenceLog
	logSeq    int
}

type memAnalysis struct {
	seq int64
	models.Analysis
}

type memWatchlist struct {
	seq int64
	models.Watchlist
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:       func() time.Time { return time.Now().UTC() },
		analyses:  make(map[string]memAnalysis),
		watchlist: make(map[string]memWatchlist),
		users:     make(map[string]models.User),
	}
}

// WithClock replaces the time source used for created dates.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Store exposes m through every repository interface.
func (m *Memory) Store() Store {
	return Store{Analyses: m, Watchlists: m, Users: m, InferenceLogs: m}
}

func (m *Memory) CreateAnalysis(ctx context.Context, a models.Analysis) (models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return models.Analysis{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	a.ID = uuid.NewString()
	a.CreatedDate = m.now()
	a.ChartPatterns = slices.Clone(a.ChartPatterns)
	m.analyses[a.ID] = memAnalysis{seq: m.seq, Analysis: a}
	return a, nil
}

func (m *Memory) GetAnalysis(_ context.Context, id string) (models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.analyses[id]
	if !ok {
		return models.Analysis{}, ErrNotFound
	}
	return a.Analysis, nil
}

func (m *Memory) ListAnalyses(_ context.Context, filter models.AnalysisFilter) ([]models.Analysis, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := make([]memAnalysis, 0, len(m.analyses))
	for _, a := range m.analyses {
		if filter.CreatedBy != "" && a.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Direction != "" && a.Direction != filter.Direction {
			continue
		}
		if filter.AssetSymbol != "" && !strings.EqualFold(a.AssetSymbol, filter.AssetSymbol) {
			continue
		}
		matched = append(matched, a)
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(x, y memAnalysis) int {
		c := compareAnalysis(x.Analysis, y.Analysis, filter.Sort.Field())
		if c == 0 {
			c = cmp.Compare(x.seq, y.seq)
		}
		if filter.Sort.Descending() {
			return -c
		}
		return c
	})

	out := make([]models.Analysis, 0, len(matched))
	for _, a := range matched {
		out = append(out, a.Analysis)
	}
	return limit(out, filter.Limit), nil
}

func compareAnalysis(x, y models.Analysis, field string) int {
	switch field {
	case "confidence_score":
		return cmp.Compare(x.ConfidenceScore, y.ConfidenceScore)
	case "asset_symbol":
		return cmp.Compare(x.AssetSymbol, y.AssetSymbol)
	case "forecast_return":
		return cmp.Compare(x.ForecastReturn, y.ForecastReturn)
	default:
		return x.CreatedDate.Compare(y.CreatedDate)
	}
}

func (m *Memory) DeleteAnalysis(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.analyses[id]; !ok {
		return ErrNotFound
	}
	delete(m.analyses, id)
	return nil
}

func (m *Memory) CreateWatchlist(ctx context.Context, w models.Watchlist) (models.Watchlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Watchlist{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	w.ID = uuid.NewString()
	w.CreatedDate = m.now()
	m.watchlist[w.ID] = memWatchlist{seq: m.seq, Watchlist: w}
	return w, nil
}

func (m *Memory) GetWatchlist(_ context.Context, id string) (models.Watchlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.watchlist[id]
	if !ok {
		return models.Watchlist{}, ErrNotFound
	}
	return w.Watchlist, nil
}

func (m *Memory) ListWatchlist(_ context.Context, filter models.WatchlistFilter) ([]models.Watchlist, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := make([]memWatchlist, 0, len(m.watchlist))
	for _, w := range m.watchlist {
		if filter.CreatedBy != "" && w.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.AssetType != "" && w.AssetType != filter.AssetType {
			continue
		}
		if filter.AssetSymbol != "" && !strings.EqualFold(w.AssetSymbol, filter.AssetSymbol) {
			continue
		}
		matched = append(matched, w)
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(x, y memWatchlist) int {
		var c int
		if filter.Sort.Field() == "asset_symbol" {
			c = cmp.Compare(x.AssetSymbol, y.AssetSymbol)
		} else {
			c = x.CreatedDate.Compare(y.CreatedDate)
		}
		if c == 0 {
			c = cmp.Compare(x.seq, y.seq)
		}
		if filter.Sort.Descending() {
			return -c
		}
		return c
	})

	out := make([]models.Watchlist, 0, len(matched))
	for _, w := range matched {
		out = append(out, w.Watchlist)
	}
	return limit(out, filter.Limit), nil
}

func (m *Memory) DeleteWatchlist(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watchlist[id]; !ok {
		return ErrNotFound
	}
	delete(m.watchlist, id)
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.User{}, ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.CreatedDate = m.now()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) CreateInferenceLog(_ context.Context, log models.InferenceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logSeq++
	log.ID = m.logSeq
	if log.CreatedAt.IsZero() {
		log.CreatedAt = m.now()
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *Memory) ListInferenceLogs(_ context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.InferenceLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		log := m.logs[i]
		if !matchesLog(log, query) {
			continue
		}
		out = append(out, log)
	}

	if query.Offset > 0 {
		if query.Offset >= len(out) {
			return nil, nil
		}
		out = out[query.Offset:]
	}
	return limit(out, query.Limit), nil
}

func (m *Memory) InferenceLogStats(_ context.Context, query models.InferenceLogQuery) (*models.InferenceLogStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.InferenceLogStats{ByOperation: map[string]models.OperationStats{}}
	var latency int
	opLatency := map[string]int{}
	for _, log := range m.logs {
		if !matchesLog(log, query) {
			continue
		}
		stats.TotalCalls++
		stats.TotalTokens += int64(log.TokensUsed)
		if log.CostUSD != nil {
			stats.TotalCostUSD += *log.CostUSD
		}

		op := stats.ByOperation[log.Operation]
		op.Calls++
		op.TotalTokens += int64(log.TokensUsed)
		switch log.Status {
		case models.InferenceSuccess:
			stats.SuccessfulCalls++
		case models.InferenceError:
			stats.FailedCalls++
			op.FailedCalls++
		}
		if log.LatencyMs != nil {
			latency += *log.LatencyMs
			opLatency[log.Operation] += *log.LatencyMs
		}
		stats.ByOperation[log.Operation] = op
	}

	if stats.TotalCalls > 0 {
		stats.AvgLatencyMs = float64(latency) / float64(stats.TotalCalls)
	}
	for name, op := range stats.ByOperation {
		op.AvgLatencyMs = float64(opLatency[name]) / float64(op.Calls)
		stats.ByOperation[name] = op
	}
	return stats, nil
}

func (m *Memory) DeleteInferenceLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.logs[:0]
	for _, log := range m.logs {
		if !log.CreatedAt.Before(cutoff) {
			kept = append(kept, log)
		}
	}
	deleted := int64(len(m.logs) - len(kept))
	m.logs = kept
	return deleted, nil
}

func matchesLog(log models.InferenceLog, q models.InferenceLogQuery) bool {
	switch {
	case q.Provider != "" && log.Provider != q.Provider:
		return false
	case q.Model != "" && log.Model != q.Model:
		return false
	case q.Operation != "" && log.Operation != q.Operation:
		return false
	case q.Status != "" && log.Status != q.Status:
		return false
	case q.UserID != "" && log.UserID != q.UserID:
		return false
	case q.StartDate != nil && log.CreatedAt.Before(*q.StartDate):
		return false
	case q.EndDate != nil && log.CreatedAt.After(*q.EndDate):
		return false
	}
	return true
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
