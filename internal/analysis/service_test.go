package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/llm"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/normalize"
	"github.com/tradesnap/tradesnap/internal/persist"
	"github.com/tradesnap/tradesnap/internal/prompts"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/uploads"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fixture struct {
	svc     *Service
	mock    *llm.Mock
	store   *store.Memory
	uploads *uploads.Local
	fails   *countingFailures
}

type countingFailures struct {
	kinds []string
}

func (c *countingFailures) ValidationFailure(kind string) { c.kinds = append(c.kinds, kind) }

// flakyStore fails the creates whose 1-based position is listed in failOn.
type flakyStore struct {
	*store.Memory
	failOn map[int]bool
	n      int
}

func (f *flakyStore) CreateAnalysis(ctx context.Context, a models.Analysis) (models.Analysis, error) {
	f.n++
	if f.failOn[f.n] {
		return models.Analysis{}, errors.New("connection reset")
	}
	return f.Memory.CreateAnalysis(ctx, a)
}

func newFixture(t *testing.T, mode persist.Mode, failOn ...int) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mem := store.NewMemory()
	files, err := uploads.NewLocal(t.TempDir(), "/files/", 1<<20)
	require.NoError(t, err)

	var target persist.Store = mem
	if len(failOn) > 0 {
		fs := &flakyStore{Memory: mem, failOn: map[int]bool{}}
		for _, n := range failOn {
			fs.failOn[n] = true
		}
		target = fs
	}

	mock := llm.NewMock()
	fails := &countingFailures{}
	svc := NewService(Deps{
		Invoker:   llm.NewService(mock, llm.Options{Files: files}, logger),
		Uploads:   files,
		Persister: persist.New(target, mode, logger, nil),
		Metrics:   fails,
	}, logger)

	return fixture{svc: svc, mock: mock, store: mem, uploads: files, fails: fails}
}

func TestAnalyzeChartUploadsAndPersists(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)

	res, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{
		Upload:     &Upload{Name: "chart.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)},
		RiskReward: 3,
	})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "user-1", rec.CreatedBy)
	assert.Equal(t, models.AnalysisTypeChartImage, rec.Type)
	assert.Equal(t, "RELIANCE", rec.AssetSymbol)
	assert.Equal(t, 3.0, rec.RiskRewardRatio, "ratio is raised to the requested minimum")
	assert.True(t, strings.HasPrefix(res.FileURL, "/files/"))
	assert.Equal(t, res.FileURL, rec.ImageURL)

	calls := f.mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "1:3")
	require.Len(t, calls[0].Files, 1)

	stored, err := f.store.ListAnalyses(context.Background(), models.AnalysisFilter{CreatedBy: "user-1"})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAnalyzeChartRejectsNonImages(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)

	_, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{
		Upload: &Upload{Name: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("hello")},
	})
	assert.ErrorIs(t, err, uploads.ErrNotImage)
	assert.Empty(t, f.mock.Calls())
}

func TestAnalyzeChartRejectsBadRiskReward(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)

	_, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{FileURL: "/files/x.png", RiskReward: 0.5})
	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
}

func TestAnalyzeChartIncompleteResponse(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)
	require.NoError(t, f.mock.SetResponse(string(prompts.KindChart), map[string]any{
		"asset_identification": map[string]any{"asset_symbol": "BTC/USD"},
	}))

	_, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{
		Upload: &Upload{Name: "chart.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)},
	})

	var verr *normalize.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, strings.HasPrefix(verr.Message, "Chart analysis failed. The AI struggled"))
	assert.Equal(t, []string{string(prompts.KindChart)}, f.fails.kinds)

	stored, err := f.store.ListAnalyses(context.Background(), models.AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored, "invalid responses are never persisted")
}

func TestChartStoreFailureIsNetworkError(t *testing.T) {
	f := newFixture(t, persist.ModeCompat, 1)

	res, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{
		Upload: &Upload{Name: "chart.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)},
	})

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.True(t, strings.HasPrefix(nerr.Message, "Chart analysis failed. "))
	assert.ErrorIs(t, err, persist.ErrNothingPersisted)
	assert.Empty(t, res.Records)
}

func TestScanWithEveryCreateFailingIsNetworkError(t *testing.T) {
	f := newFixture(t, persist.ModeCompat, 1, 2)

	_, err := f.svc.TopMovers(context.Background(), "u", ScanRequest{})

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Failed to load top movers. Please try again.", nerr.Message)
}

func TestModelFailureIsNetworkError(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)
	f.mock.SetError(errors.New("503 service unavailable"))

	_, err := f.svc.ScreenAssets(context.Background(), "user-1", ScanRequest{AssetClass: prompts.AssetClassStocks})

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Failed to fetch market data. Please try again.", nerr.Message)
	assert.Contains(t, nerr.Detail, "503 service unavailable")
}

func TestChartModelFailureMessage(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)
	f.mock.SetError(errors.New("timeout"))

	_, err := f.svc.AnalyzeChart(context.Background(), "user-1", ChartRequest{
		Upload: &Upload{Name: "chart.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)},
	})

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.True(t, strings.HasPrefix(nerr.Message, "Chart analysis failed. "))
	assert.True(t, strings.HasSuffix(nerr.Message, "Please try uploading a clearer chart image with visible price data and technical indicators."))
}

func TestScansPersistEveryCandidate(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)
	ctx := context.Background()

	screen, err := f.svc.ScreenAssets(ctx, "u", ScanRequest{AssetClass: prompts.AssetClassStocks, Timeframe: "1W"})
	require.NoError(t, err)
	require.Len(t, screen.Records, 2)
	assert.Equal(t, []string{"UNDERVALUED", "1W_SETUP"}, screen.Records[0].ChartPatterns)
	assert.Equal(t, 1, screen.Summary.Categories.Underpriced)

	movers, err := f.svc.TopMovers(ctx, "u", ScanRequest{AssetClass: prompts.AssetClassStocks})
	require.NoError(t, err)
	require.Len(t, movers.Records, 2)
	assert.Equal(t, 1, movers.Summary.VeryHighVolume)

	news, err := f.svc.NewsSignals(ctx, "u")
	require.NoError(t, err)
	require.Len(t, news.Records, 2)
	assert.Len(t, news.Tabs.Crypto, 1)
	assert.Equal(t, "BTC/USD", news.Tabs.Crypto[0].AssetSymbol)

	all, err := f.store.ListAnalyses(ctx, models.AnalysisFilter{CreatedBy: "u"})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func fiveMovers() map[string]any {
	var movers []any
	for _, sym := range []string{"A", "B", "C", "D", "E"} {
		movers = append(movers, map[string]any{"asset_symbol": sym, "direction": "BUY", "entry_price": 100, "take_profit": 110})
	}
	return map[string]any{"top_movers": movers}
}

func TestCompatModeDropsFailedCreatesSilently(t *testing.T) {
	f := newFixture(t, persist.ModeCompat, 3)
	require.NoError(t, f.mock.SetResponse(string(prompts.KindTopMovers), fiveMovers()))

	res, err := f.svc.TopMovers(context.Background(), "u", ScanRequest{})
	require.NoError(t, err)

	var symbols []string
	for _, r := range res.Records {
		symbols = append(symbols, r.AssetSymbol)
	}
	assert.Equal(t, []string{"A", "B", "D", "E"}, symbols)
	assert.Empty(t, res.Failures)
}

func TestReportModeListsFailures(t *testing.T) {
	f := newFixture(t, persist.ModeReport, 3)
	require.NoError(t, f.mock.SetResponse(string(prompts.KindTopMovers), fiveMovers()))

	res, err := f.svc.TopMovers(context.Background(), "u", ScanRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 4)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Index)
	assert.Equal(t, "C", res.Failures[0].AssetSymbol)
}

func TestAtomicModeFailsTheBatch(t *testing.T) {
	f := newFixture(t, persist.ModeAtomic, 3)
	require.NoError(t, f.mock.SetResponse(string(prompts.KindTopMovers), fiveMovers()))

	_, err := f.svc.TopMovers(context.Background(), "u", ScanRequest{})

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	var pf *persist.PartialFailure
	assert.ErrorAs(t, err, &pf)

	stored, err := f.store.ListAnalyses(context.Background(), models.AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCancelledContextSkipsPersistence(t *testing.T) {
	f := newFixture(t, persist.ModeCompat)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.NewsSignals(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := f.store.ListAnalyses(context.Background(), models.AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}
