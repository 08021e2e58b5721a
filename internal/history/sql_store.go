package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "anyumarket/internal/errors"
	"anyumarket/pkg/contracts/domain"
)

// Dialect selects the SQL flavour of a SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS market_history (
	day        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLStore keeps one row per dated record, with the record as a JSON payload
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	retention int
	logger    *slog.Logger
}

// OpenSQLite opens or creates a SQLite ledger at path.
func OpenSQLite(path string, retention int, logger *slog.Logger) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.NewStorageError("failed to create history directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sqlite history", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	return NewSQLStore(db, DialectSQLite, retention, logger)
}

// OpenPostgres connects to PostgreSQL, retrying the initial ping.
func OpenPostgres(dsn string, retention int, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open postgres history", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("postgres ping failed after retries", err)
	}

	return NewSQLStore(db, DialectPostgres, retention, logger)
}

// NewSQLStore wraps an open database and creates the ledger table.
func NewSQLStore(db *sql.DB, dialect Dialect, retention int, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	s := &SQLStore{
		db:        db,
		dialect:   dialect,
		retention: retention,
		logger:    logger.With(slog.String("component", "history"), slog.String("dialect", string(dialect))),
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to migrate history table", err)
	}
	return s, nil
}

// Append implements Store. The upsert and the trim run in one transaction.
func (s *SQLStore) Append(ctx context.Context, record domain.MergedDailyRecord) error {
	if record.Date == "" {
		return apperrors.NewAppValidationError("history record has no date")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewParsingError("failed to encode history record", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin history transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO market_history (day, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		record.Date, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return apperrors.NewStorageError("failed to upsert history record", err).
			WithContext("date", record.Date)
	}

	res, err := tx.ExecContext(ctx, s.rebind(`
		DELETE FROM market_history WHERE day NOT IN (
			SELECT day FROM market_history ORDER BY day DESC LIMIT ?
		)`), s.retention)
	if err != nil {
		return apperrors.NewStorageError("failed to trim history", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit history record", err)
	}

	evicted, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "history record stored",
		slog.String("date", record.Date),
		slog.Int64("evicted", evicted))
	return nil
}

// Range implements Store.
func (s *SQLStore) Range(ctx context.Context, start, end string) ([]domain.MergedDailyRecord, error) {
	return s.query(ctx, s.rebind(`
		SELECT day, payload FROM market_history WHERE day >= ? AND day <= ? ORDER BY day`), start, end)
}

// All implements Store.
func (s *SQLStore) All(ctx context.Context) ([]domain.MergedDailyRecord, error) {
	return s.query(ctx, `SELECT day, payload FROM market_history ORDER BY day`)
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]domain.MergedDailyRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query history", err)
	}
	defer rows.Close()

	var records []domain.MergedDailyRecord
	for rows.Next() {
		var day, payload string
		if err := rows.Scan(&day, &payload); err != nil {
			return nil, apperrors.NewStorageError("failed to scan history row", err)
		}
		var record domain.MergedDailyRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, apperrors.NewParsingError("failed to decode history record", err).
				WithContext("date", day)
		}
		record.Date = day
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate history rows", err)
	}
	return records, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*JSONStore)(nil)
)
