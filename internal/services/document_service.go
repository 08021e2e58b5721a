package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"anyumarket/internal/files"
	"anyumarket/pkg/contracts/domain"
)

// DocumentKind describes one family of published documents
type DocumentKind struct {
	Type        domain.ArtifactKind
	Pattern     string
	Extension   string
	Title       string
	Description string
}

// DocumentKinds are the downloadable report families, spreadsheets first.
var DocumentKinds = []DocumentKind{
	{
		Type:        domain.ArtifactSpreadsheet,
		Pattern:     "本周行情数据_*.xlsx",
		Extension:   ".xlsx",
		Title:       "本周行情数据",
		Description: "本周六大品类（生猪、仔猪、鸡蛋、淘汰鸡、玉米、豆粕）行情数据",
	},
	{
		Type:        domain.ArtifactNarrative,
		Pattern:     "每周周报_*.txt",
		Extension:   ".txt",
		Title:       "每周周报",
		Description: "本周行情分析及下周市场预测",
	},
}

// Document is a listed report file
type Document struct {
	Type        domain.ArtifactKind `json:"type"`
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Size        int64               `json:"size"`
	Checksum    string              `json:"checksum,omitempty"`
	DownloadURL string              `json:"download_url"`
}

// CatalogReader loads the report catalog
type CatalogReader interface {
	Load(ctx context.Context) (domain.Catalog, error)
}

// DocumentService lists and resolves report documents in the reports
// directory
type DocumentService struct {
	discovery *files.Discovery
	catalog   CatalogReader
	logger    *slog.Logger
}

// NewDocumentService creates a document service over reportsDir.
func NewDocumentService(reportsDir string, catalog CatalogReader, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		discovery: files.NewDiscovery(reportsDir),
		catalog:   catalog,
		logger:    logger.With(slog.String("service", "documents")),
	}
}

// List returns the published documents, spreadsheets first, newest first
// within each kind.
func (s *DocumentService) List(ctx context.Context) ([]Document, error) {
	documents := []Document{}
	for _, kind := range DocumentKinds {
		found, err := s.discovery.FindFilesByPattern(kind.Pattern)
		if err != nil {
			return nil, err
		}
		found, err = files.WithChecksums(found)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			documents = append(documents, Document{
				Type:        kind.Type,
				Name:        f.Name,
				Title:       kind.Title,
				Description: kind.Description,
				Size:        f.Size,
				Checksum:    f.Checksum,
				DownloadURL: "/download/" + url.PathEscape(f.Name),
			})
		}
	}

	s.logger.DebugContext(ctx, "documents listed", slog.Int("count", len(documents)))
	return documents, nil
}

// Resolve maps a requested file name to a path inside the reports
// directory. Names with path elements are forbidden, as are extensions
// other than the report ones.
func (s *DocumentService) Resolve(ctx context.Context, filename string) (string, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) || filepath.IsAbs(filename) {
		s.logger.WarnContext(ctx, "Attempted directory traversal", slog.String("requested_path", filename))
		return "", fmt.Errorf("%w: %s", ErrForbiddenPath, filename)
	}

	allowed := false
	for _, kind := range DocumentKinds {
		if strings.HasSuffix(filename, kind.Extension) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, filename)
	}

	path := filepath.Join(s.discovery.BasePath(), filename)
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// Catalog returns the report catalog.
func (s *DocumentService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.catalog.Load(ctx)
}
