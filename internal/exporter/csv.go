package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"

	apperrors "ptbxl/internal/errors"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a writer that resolves relative paths against baseDir.
// An empty baseDir leaves relative paths relative to the working directory.
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{baseDir: baseDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Write a UTF-8 BOM before the header
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := ensureDir(fullPath); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0o644)
	if err != nil {
		return apperrors.NewStorageError("failed to open file", err).WithContext("path", fullPath)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err).WithContext("path", fullPath)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err).WithContext("path", fullPath)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err).WithContext("path", fullPath)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush CSV", err).WithContext("path", fullPath)
	}
	return nil
}

// WriteFrame writes df with a header row. The file is replaced atomically.
func (w *CSVWriter) WriteFrame(filePath string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return apperrors.NewValidationError("cannot write invalid frame", df.Err)
	}
	fullPath := w.resolvePath(filePath)
	rows, cols := df.Dims()

	w.logger.Info("Writing data frame",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("rows", rows),
		slog.Int("columns", cols))

	if err := ensureDir(fullPath); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError("failed to create temporary file", err).WithContext("path", fullPath)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	buf := bufio.NewWriter(tmp)
	if err := df.WriteCSV(buf); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to write frame", err).WithContext("path", fullPath)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to flush frame", err).WithContext("path", fullPath)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close temporary file", err).WithContext("path", fullPath)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return apperrors.NewStorageError("failed to move output into place", err).WithContext("path", fullPath)
	}
	return nil
}

// ResolvePath returns the path WriteCSV and WriteFrame write to
func (w *CSVWriter) ResolvePath(filePath string) string {
	return w.resolvePath(filePath)
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

func ensureDir(fullPath string) error {
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", dir)
	}
	return nil
}
