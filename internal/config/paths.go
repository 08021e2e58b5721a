package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Well-known document names inside the data directory
const (
	HistoryFileName  = "market_history.json"
	HistoryDBName    = "history.db"
	CatalogFileName  = "weekly_report_index.json"
	SnapshotFileName = "market.json"
	DailyFileName    = "market_data.json"
)

// Paths contains all the application paths
type Paths struct {
	RootDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string

	HistoryFile  string
	HistoryDB    string
	CatalogFile  string
	SnapshotFile string
	DailyFile    string
}

// ExecutableDir returns the directory containing the running binary
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResolvePaths resolves the configured layout to absolute paths
func (c *Config) ResolvePaths() (*Paths, error) {
	root := c.Paths.RootDir
	if root == "" {
		exeDir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		root = exeDir
	}
	return NewPaths(root, c.Paths), nil
}

// NewPaths builds the layout under root. The reports directory defaults to
// the data directory, where the download server looks for documents.
func NewPaths(root string, cfg PathsConfig) *Paths {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	dataDir := resolve(cfg.DataDir)
	reportsDir := dataDir
	if cfg.ReportsDir != "" {
		reportsDir = resolve(cfg.ReportsDir)
	}

	return &Paths{
		RootDir:      root,
		DataDir:      dataDir,
		ReportsDir:   reportsDir,
		LogsDir:      resolve(cfg.LogsDir),
		HistoryFile:  filepath.Join(dataDir, HistoryFileName),
		HistoryDB:    filepath.Join(dataDir, HistoryDBName),
		CatalogFile:  filepath.Join(dataDir, CatalogFileName),
		SnapshotFile: filepath.Join(dataDir, SnapshotFileName),
		DailyFile:    filepath.Join(dataDir, DailyFileName),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetReportPath returns the full path of a report document
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path of a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("root", p.RootDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("documents",
			slog.String("history", p.HistoryFile),
			slog.String("catalog", p.CatalogFile),
			slog.String("snapshot", p.SnapshotFile),
		))
}
