// Package catalog maintains the index of published weekly reports. The
// newest report is both the latest entry and the head of the history, which
// is capped to a fixed number of entries. Publishing a period twice keeps
// both entries.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "anyumarket/internal/errors"
	"anyumarket/internal/files"
	"anyumarket/pkg/contracts/domain"
)

// DefaultLimit is the number of history entries kept.
const DefaultLimit = 10

// Catalog is the report index persisted as a JSON document
type Catalog struct {
	path     string
	limit    int
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
	mu       sync.Mutex
}

// Option configures a Catalog
type Option func(*Catalog)

// WithClock overrides the publication clock.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// New creates a catalog stored at path.
func New(path string, limit int, logger *slog.Logger, opts ...Option) *Catalog {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		path:     path,
		limit:    limit,
		now:      time.Now,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "catalog")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the catalog. A missing document is an empty catalog.
func (c *Catalog) Load(ctx context.Context) (domain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Publish records a spreadsheet and narrative pair for a period as the
// newest entry.
func (c *Catalog) Publish(ctx context.Context, spreadsheet, narrative domain.ReportArtifact) (domain.CatalogEntry, error) {
	entry := domain.CatalogEntry{
		ID:              uuid.New().String(),
		WeekStart:       spreadsheet.WeekStart,
		WeekEnd:         spreadsheet.WeekEnd,
		SpreadsheetName: spreadsheet.Name,
		NarrativeName:   narrative.Name,
		GeneratedAt:     spreadsheet.GeneratedAt,
	}
	if entry.GeneratedAt.IsZero() {
		entry.GeneratedAt = c.now()
	}
	if err := c.validate.Struct(entry); err != nil {
		return domain.CatalogEntry{}, apperrors.NewAppValidationError("invalid catalog entry: " + err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.load()
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	history := append([]domain.CatalogEntry{entry}, current.History...)
	if len(history) > c.limit {
		history = history[:c.limit]
	}
	latest := entry
	next := domain.Catalog{Latest: &latest, History: history}

	if err := files.WriteJSONAtomic(c.path, next); err != nil {
		return domain.CatalogEntry{}, apperrors.NewStorageError("failed to write report catalog", err).
			WithContext("path", c.path)
	}

	c.logger.InfoContext(ctx, "report published",
		slog.String("id", entry.ID),
		slog.String("week_start", entry.WeekStart),
		slog.String("week_end", entry.WeekEnd),
		slog.Int("history", len(history)))
	return entry, nil
}

func (c *Catalog) load() (domain.Catalog, error) {
	var doc domain.Catalog
	if _, err := files.ReadJSON(c.path, &doc); err != nil {
		return domain.Catalog{}, apperrors.NewStorageError("failed to read report catalog", err).
			WithContext("path", c.path)
	}
	if doc.History == nil {
		doc.History = []domain.CatalogEntry{}
	}
	return doc, nil
}
