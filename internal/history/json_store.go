package history

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	apperrors "anyumarket/internal/errors"
	"anyumarket/internal/files"
	"anyumarket/pkg/contracts/domain"
)

// JSONStore keeps the ledger as one JSON document mapping ISO dates to
// records. Every append rewrites the document atomically.
type JSONStore struct {
	path      string
	retention int
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewJSONStore creates a document-backed store at path.
func NewJSONStore(path string, retention int, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &JSONStore{
		path:      path,
		retention: retention,
		logger:    logger.With(slog.String("component", "history")),
	}
}

// Path returns the ledger document location.
func (s *JSONStore) Path() string {
	return s.path
}

// Append implements Store.
func (s *JSONStore) Append(ctx context.Context, record domain.MergedDailyRecord) error {
	if record.Date == "" {
		return apperrors.NewAppValidationError("history record has no date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load()
	if err != nil {
		return err
	}

	_, replaced := ledger[record.Date]
	ledger[record.Date] = record

	dates := make([]string, 0, len(ledger))
	for d := range ledger {
		dates = append(dates, d)
	}
	evicted := evictedDates(dates, s.retention)
	for _, d := range evicted {
		delete(ledger, d)
	}

	if err := files.WriteJSONAtomic(s.path, ledger); err != nil {
		return apperrors.NewStorageError("failed to write history ledger", err).
			WithContext("path", s.path)
	}

	s.logger.InfoContext(ctx, "history record stored",
		slog.String("date", record.Date),
		slog.Bool("replaced", replaced),
		slog.Int("evicted", len(evicted)),
		slog.Int("entries", len(ledger)))
	return nil
}

// Range implements Store.
func (s *JSONStore) Range(ctx context.Context, start, end string) ([]domain.MergedDailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load()
	if err != nil {
		return nil, err
	}

	var records []domain.MergedDailyRecord
	for d, r := range ledger {
		if inRange(d, start, end) {
			records = append(records, r)
		}
	}
	sortByDate(records)
	return records, nil
}

// All implements Store.
func (s *JSONStore) All(ctx context.Context) ([]domain.MergedDailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load()
	if err != nil {
		return nil, err
	}

	records := make([]domain.MergedDailyRecord, 0, len(ledger))
	for _, r := range ledger {
		records = append(records, r)
	}
	sortByDate(records)
	return records, nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return nil
}

// load reads the ledger; a missing document is an empty ledger.
func (s *JSONStore) load() (map[string]domain.MergedDailyRecord, error) {
	ledger := make(map[string]domain.MergedDailyRecord)
	found, err := files.ReadJSON(s.path, &ledger)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read history ledger", err).
			WithContext("path", s.path)
	}
	if !found || ledger == nil {
		return make(map[string]domain.MergedDailyRecord), nil
	}
	// Records written without a date take it from their key
	for d, r := range ledger {
		if r.Date == "" {
			r.Date = d
			ledger[d] = r
		}
	}
	return ledger, nil
}

func sortByDate(records []domain.MergedDailyRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
}
