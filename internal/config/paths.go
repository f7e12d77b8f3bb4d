package config

import (
	"log/slog"
	"path/filepath"
)

// DatasetPaths contains the resolved locations of a PTB-XL release
type DatasetPaths struct {
	Root       string
	Database   string
	Statements string
}

// Paths resolves the configured files against the dataset root. Absolute
// file names are used as given.
func (d DatasetConfig) Paths() DatasetPaths {
	return DatasetPaths{
		Root:       d.Root,
		Database:   resolve(d.Root, d.DatabaseFile),
		Statements: resolve(d.Root, d.StatementsFile),
	}
}

// RecordPath returns the on-disk path of a waveform record referenced by a
// filename_lr or filename_hr column, without the .hea/.dat extension.
func (p DatasetPaths) RecordPath(filename string) string {
	return resolve(p.Root, filename)
}

// LogPathResolution logs all resolved paths for debugging
func (p DatasetPaths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Dataset path resolution",
		slog.String("root", p.Root),
		slog.String("database", p.Database),
		slog.String("statements", p.Statements))
}

func resolve(root, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(root, name)
}
