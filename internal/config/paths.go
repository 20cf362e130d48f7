package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths, resolved against Config.BaseDir.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir    string
	DataDir    string
	LogsDir    string
	ExportsDir string
	LogFile    string
}

// Source is a resolved dataset source: an admission year and its absolute file path
type Source struct {
	Year int
	Path string
}

// GetPaths resolves the application paths for cfg
func (c *Config) GetPaths() *Paths {
	base := c.BaseDir
	dataDir := resolve(base, c.Dataset.DataDir)
	logFile := resolve(base, c.Logging.FilePath)

	return &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		LogsDir:    filepath.Dir(logFile),
		ExportsDir: resolve(base, DefaultExportsDir),
		LogFile:    logFile,
	}
}

// Sources returns the configured dataset sources in load order with
// their paths resolved against the data directory.
func (c *Config) Sources() []Source {
	dataDir := c.GetPaths().DataDir
	sources := make([]Source, 0, len(c.Dataset.Sources))
	for _, src := range c.Dataset.Sources {
		sources = append(sources, Source{
			Year: src.Year,
			Path: resolve(dataDir, src.Path),
		})
	}
	return sources
}

// EnsureDirectories creates the writable directories if they don't exist.
// The data directory is read-only input and is never created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ExportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Path resolution",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("log_file", p.LogFile))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
