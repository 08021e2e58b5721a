package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/internal/config"
	apperrors "anyumarket/internal/errors"
	"anyumarket/pkg/contracts/domain"
)

func record(date string, pig float64) domain.MergedDailyRecord {
	return domain.MergedDailyRecord{
		Date:      date,
		Timestamp: time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
		Products: map[domain.ProductID]domain.ProductEntry{
			domain.ProductPig: {
				Price: domain.Float(pig),
				Sources: []domain.PriceObservation{
					{Product: domain.ProductPig, Source: "博亚和讯", Price: pig, Date: date},
				},
			},
			domain.ProductCorn: {Sources: []domain.PriceObservation{}},
		},
	}
}

func dayString(offset int) string {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset).Format(domain.DateLayout)
}

type storeFactory func(t *testing.T, retention int) Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"json": func(t *testing.T, retention int) Store {
			return NewJSONStore(filepath.Join(t.TempDir(), config.HistoryFileName), retention, nil)
		},
		"sqlite": func(t *testing.T, retention int) Store {
			s, err := OpenSQLite(":memory:", retention, nil)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreAppendAndRange(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, DefaultRetention)

			require.NoError(t, s.Append(ctx, record("2024-05-08", 15.1)))
			require.NoError(t, s.Append(ctx, record("2024-05-06", 15.0)))
			require.NoError(t, s.Append(ctx, record("2024-05-12", 15.4)))
			require.NoError(t, s.Append(ctx, record("2024-05-13", 15.6)))

			got, err := s.Range(ctx, "2024-05-06", "2024-05-12")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "2024-05-06", got[0].Date)
			assert.Equal(t, "2024-05-08", got[1].Date)
			assert.Equal(t, "2024-05-12", got[2].Date)

			price, ok := got[2].Price(domain.ProductPig)
			assert.True(t, ok)
			assert.Equal(t, 15.4, price)
			_, ok = got[2].Price(domain.ProductCorn)
			assert.False(t, ok)

			empty, err := s.Range(ctx, "2023-01-01", "2023-01-07")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStoreAppendOverwritesSameDate(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, DefaultRetention)

			require.NoError(t, s.Append(ctx, record("2024-05-06", 15.0)))
			require.NoError(t, s.Append(ctx, record("2024-05-06", 16.0)))

			all, err := s.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			price, _ := all[0].Price(domain.ProductPig)
			assert.Equal(t, 16.0, price)
		})
	}
}

func TestStoreRetentionEvictsOldestDates(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, DefaultRetention)

			// Appended newest first so eviction cannot rely on insertion order
			for i := 69; i >= 0; i-- {
				require.NoError(t, s.Append(ctx, record(dayString(i), float64(i))))
			}

			all, err := s.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, DefaultRetention)

			// Only the ten oldest are evicted, and the latest append (day 0)
			// was itself among them.
			assert.Equal(t, dayString(10), all[0].Date)
			assert.Equal(t, dayString(69), all[len(all)-1].Date)
		})
	}
}

func TestStoreSmallRetention(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, 3)

			for i := 0; i < 5; i++ {
				require.NoError(t, s.Append(ctx, record(dayString(i), float64(i))))
			}

			all, err := s.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{dayString(2), dayString(3), dayString(4)},
				[]string{all[0].Date, all[1].Date, all[2].Date})
		})
	}
}

func TestStoreRejectsUndatedRecord(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			err := newStore(t, DefaultRetention).Append(context.Background(), domain.MergedDailyRecord{})
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestJSONStoreDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.HistoryFileName)
	s := NewJSONStore(path, DefaultRetention, nil)
	require.NoError(t, s.Append(context.Background(), record("2024-05-06", 15.2)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2024-05-06"`)
	assert.Contains(t, string(data), `"price": 15.2`)
	assert.Contains(t, string(data), `"price": null`)
}

func TestJSONStoreCorruptDocumentIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.HistoryFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewJSONStore(path, DefaultRetention, nil)
	_, err := s.All(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	// A failed read leaves the document untouched
	err = s.Append(context.Background(), record("2024-05-06", 15.0))
	require.Error(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(data))
}

func TestOpen(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{DataDir: "data", LogsDir: "logs"})

	tests := []struct {
		name    string
		cfg     config.HistoryConfig
		wantErr bool
	}{
		{name: "json", cfg: config.HistoryConfig{Backend: "json", Retention: 60}},
		{name: "default backend", cfg: config.HistoryConfig{}},
		{name: "sqlite", cfg: config.HistoryConfig{Backend: "sqlite", Retention: 60}},
		{name: "unknown", cfg: config.HistoryConfig{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg, paths, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.NoError(t, s.Append(context.Background(), record("2024-05-06", 15.0)))
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	lite := &SQLStore{dialect: DialectSQLite}

	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestEvictedDates(t *testing.T) {
	dates := make([]string, 0, 8)
	for i := 7; i >= 0; i-- {
		dates = append(dates, fmt.Sprintf("2024-01-0%d", i+1))
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, evictedDates(dates, 6))
	assert.Nil(t, evictedDates(dates, 8))
}
