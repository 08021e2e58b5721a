package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/internal/config"
	"anyumarket/pkg/contracts/domain"
)

func historyFixture() []domain.MergedDailyRecord {
	return []domain.MergedDailyRecord{
		{
			Date: "2024-05-06",
			Products: map[domain.ProductID]domain.ProductEntry{
				domain.ProductPig: {
					Price: domain.Float(15.2),
					Sources: []domain.PriceObservation{
						{Product: domain.ProductPig, Source: "博亚和讯", Price: 15.2},
						{Product: domain.ProductPig, Source: "猪好多网", Price: 15.3},
					},
				},
				domain.ProductCorn: {
					Price:   domain.Float(2285),
					Sources: []domain.PriceObservation{{Product: domain.ProductCorn, Source: "港口价格备用", Price: 2285, Backup: true}},
				},
			},
		},
	}
}

func TestHistoryRows(t *testing.T) {
	rows := HistoryRows(historyFixture())
	require.Len(t, rows, 6)

	assert.Equal(t, []string{"2024-05-06", "生猪", "15.20", "博亚和讯;猪好多网"}, rows[0])
	assert.Equal(t, []string{"2024-05-06", "仔猪", "", ""}, rows[1])
	assert.Equal(t, []string{"2024-05-06", "玉米", "2285.00", "港口价格备用(backup)"}, rows[4])
}

func TestCSVWriterWriteHistory(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir, config.PathsConfig{DataDir: "data", ReportsDir: "reports", LogsDir: "logs"})
	w := NewCSVWriter(paths)

	require.NoError(t, w.WriteHistory("history.csv", historyFixture()))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "history.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, HistoryHeaders, records[0])
	assert.Equal(t, "生猪", records[1][1])
}

func TestCSVWriterAbsolutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "plain.csv")
	w := NewCSVWriter(nil)

	require.NoError(t, w.WriteCSV(path, WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}
