package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"anyumarket/internal/catalog"
	"anyumarket/internal/config"
	"anyumarket/internal/exporter"
	"anyumarket/internal/history"
	"anyumarket/internal/shared/testutil"
	"anyumarket/internal/snapshot"
	"anyumarket/pkg/contracts/domain"
)

type stubSources struct {
	results []domain.SourceResult
	err     error
}

func (s stubSources) CollectAll(context.Context) ([]domain.SourceResult, error) {
	return s.results, s.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, domain.ReportArtifact, domain.ReportArtifact) (domain.CatalogEntry, error) {
	return domain.CatalogEntry{}, errors.New("catalog unavailable")
}

func observation(source string, id domain.ProductID, price float64) domain.PriceObservation {
	return domain.PriceObservation{Product: id, Source: source, Price: price, Date: "2024-05-06"}
}

func TestCollectorRunFillsBackup(t *testing.T) {
	ctx := context.Background()
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)

	sources := stubSources{results: []domain.SourceResult{{
		Source: "博亚和讯",
		Observations: map[domain.ProductID]domain.PriceObservation{
			domain.ProductPig: observation("博亚和讯", domain.ProductPig, 15.20),
		},
	}}}

	c := NewCollector(sources, ledger, paths, []string{"博亚和讯"}, 42, nil)
	date := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	res, err := c.Run(ctx, date)
	require.NoError(t, err)
	assert.False(t, res.Run.Failed())

	pig, ok := res.Record.Price(domain.ProductPig)
	require.True(t, ok)
	assert.Equal(t, 15.20, pig)

	corn := res.Record.Products[domain.ProductCorn]
	require.NotNil(t, corn.Price)
	assert.Equal(t, 2285.0, *corn.Price)
	require.Len(t, corn.Sources, 1)
	assert.Equal(t, "港口价格备用", corn.Sources[0].Source)
	assert.True(t, corn.Sources[0].Backup)

	_, ok = res.Record.Price(domain.ProductSoybean)
	assert.False(t, ok)

	stored, err := ledger.Range(ctx, "2024-05-06", "2024-05-06")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	snap, err := snapshot.Load(paths.SnapshotFile)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 15.20, *snap.Products[domain.ProductPig].NationalPrice)
	assert.FileExists(t, paths.DailyFile)
}

func TestCollectorRunCancelledWritesNothing(t *testing.T) {
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)

	c := NewCollector(stubSources{err: context.Canceled}, ledger, paths, nil, 42, nil)
	res, err := c.Run(context.Background(), time.Now())
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Run.Failed())

	assert.NoFileExists(t, paths.HistoryFile)
	assert.NoFileExists(t, paths.SnapshotFile)
}

type failingLedger struct {
	history.Store
}

func (failingLedger) Append(context.Context, domain.MergedDailyRecord) error {
	return errors.New("ledger unavailable")
}

func pigSources() stubSources {
	return stubSources{results: []domain.SourceResult{{
		Source: "博亚和讯",
		Observations: map[domain.ProductID]domain.PriceObservation{
			domain.ProductPig: observation("博亚和讯", domain.ProductPig, 15.20),
		},
	}}}
}

func TestCollectorRunDailyWriteFailureLeavesLedgerEmpty(t *testing.T) {
	ctx := context.Background()
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(paths.DailyFile, "taken"), 0755))

	res, err := NewCollector(pigSources(), ledger, paths, nil, 42, nil).
		Run(ctx, time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, res.Run.Failed())

	stored, err := ledger.Range(ctx, "2024-05-06", "2024-05-06")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.NoFileExists(t, paths.SnapshotFile)
}

func TestCollectorRunLedgerFailureRestoresDocuments(t *testing.T) {
	paths := testutil.TestPaths(t)
	require.NoError(t, os.WriteFile(paths.SnapshotFile, []byte(`{"update_date":"2024-05-05"}`), 0644))

	logger, logs := testutil.NewTestLogger(t)
	ledger := failingLedger{Store: history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)}
	res, err := NewCollector(pigSources(), ledger, paths, nil, 42, logger).
		Run(context.Background(), time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, res.Run.Failed())

	failed := testutil.AssertLogContains(t, logs, slog.LevelError, "stage_execution_failed")
	assert.Equal(t, "history.append", failed.Attrs["stage"])

	assert.NoFileExists(t, paths.DailyFile)
	data, err := os.ReadFile(paths.SnapshotFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"update_date":"2024-05-05"}`, string(data))
}

func seedLedger(t *testing.T, store history.Store) {
	t.Helper()
	ctx := context.Background()
	days := []domain.MergedDailyRecord{
		testutil.LedgerDay("2024-04-29", map[domain.ProductID]float64{domain.ProductPig: 14.40, domain.ProductCorn: 2300}),
		testutil.LedgerDay("2024-05-01", map[domain.ProductID]float64{domain.ProductPig: 14.60, domain.ProductCorn: 2300}),
		testutil.LedgerDay("2024-05-06", map[domain.ProductID]float64{domain.ProductPig: 14.80, domain.ProductCorn: 2280}),
		testutil.LedgerDay("2024-05-09", map[domain.ProductID]float64{domain.ProductPig: 15.20, domain.ProductCorn: 2280}),
	}
	for _, d := range days {
		require.NoError(t, store.Append(ctx, d))
	}
}

func TestReporterRun(t *testing.T) {
	ctx := context.Background()
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)
	seedLedger(t, ledger)
	cat := catalog.New(paths.CatalogFile, catalog.DefaultLimit, nil)

	r := NewReporter(ledger, cat, paths, config.Default().Report, nil)
	res, err := r.Run(ctx, time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2024-05-06", res.Aggregate.WeekStart)
	assert.Equal(t, "2024-05-12", res.Aggregate.WeekEnd)

	pig := res.Aggregate.Products[domain.ProductPig]
	require.NotNil(t, pig.Change)
	assert.InDelta(t, 0.50, pig.Change.Diff, 1e-9)
	assert.InDelta(t, 3.45, pig.Change.Percent, 0.01)

	// Soybean meal has no data at all
	assert.Nil(t, res.Aggregate.Products[domain.ProductSoybean].Average)

	assert.Equal(t, "本周行情数据_2024-05-06至2024-05-12.xlsx", res.Spreadsheet.Name)
	assert.Equal(t, "每周周报_2024-05-06至2024-05-12.txt", res.Narrative.Name)
	require.FileExists(t, res.Spreadsheet.Path)
	require.FileExists(t, res.Narrative.Path)

	f, err := excelize.OpenFile(res.Spreadsheet.Path)
	require.NoError(t, err)
	defer f.Close()
	national, err := f.GetCellValue(exporter.SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "15.00(+0.50,+3.45%)", national)
	soy, err := f.GetCellValue(exporter.SheetName, "D17")
	require.NoError(t, err)
	assert.Equal(t, exporter.NoData, soy)

	text, err := os.ReadFile(res.Narrative.Path)
	require.NoError(t, err)
	assert.Contains(t, string(text), "生猪市场：全国均价 15.00元/公斤 (+0.50，环比上涨)")
	assert.False(t, strings.Contains(string(text), "豆粕市场：全国均价"))

	doc, err := cat.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc.Latest)
	assert.Equal(t, res.Entry.ID, doc.History[0].ID)
	assert.Equal(t, res.Spreadsheet.Name, doc.Latest.SpreadsheetName)
}

func TestReporterRunStampsGeneratedAt(t *testing.T) {
	ctx := context.Background()
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)
	seedLedger(t, ledger)
	cat := catalog.New(paths.CatalogFile, catalog.DefaultLimit, nil)

	generated := time.Date(2024, 5, 12, 12, 0, 5, 0, time.UTC)
	res, err := NewReporter(ledger, cat, paths, config.Default().Report, nil,
		WithReportClock(func() time.Time { return generated })).
		Run(ctx, time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, generated.Equal(res.Spreadsheet.GeneratedAt))
	assert.True(t, generated.Equal(res.Narrative.GeneratedAt))
	assert.True(t, generated.Equal(res.Entry.GeneratedAt))
}

func TestReporterRunWithEmptyLedger(t *testing.T) {
	ctx := context.Background()
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)
	cat := catalog.New(paths.CatalogFile, catalog.DefaultLimit, nil)

	res, err := NewReporter(ledger, cat, paths, config.Default().Report, nil).
		Run(ctx, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.FileExists(t, res.Spreadsheet.Path)
	assert.FileExists(t, res.Narrative.Path)

	doc, err := cat.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.History, 1)
}

func TestReporterRunRemovesArtifactsWhenCatalogFails(t *testing.T) {
	paths := testutil.TestPaths(t)
	ledger := history.NewJSONStore(paths.HistoryFile, history.DefaultRetention, nil)
	seedLedger(t, ledger)

	logger, logs := testutil.NewTestLogger(t)
	res, err := NewReporter(ledger, failingPublisher{}, paths, config.Default().Report, logger).
		Run(context.Background(), time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, res.Run.Failed())

	failed := testutil.AssertLogContains(t, logs, slog.LevelError, "stage_execution_failed")
	assert.Equal(t, "catalog.publish", failed.Attrs["stage"])

	assert.NoFileExists(t, res.Spreadsheet.Path)
	assert.NoFileExists(t, res.Narrative.Path)
	matches, _ := filepath.Glob(filepath.Join(paths.ReportsDir, "*.xlsx"))
	assert.Empty(t, matches)
}
