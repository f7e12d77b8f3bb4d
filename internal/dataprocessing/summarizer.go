package dataprocessing

import (
	"log/slog"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/exporter"
)

// SummaryHeaders is the header row of the class distribution summary
var SummaryHeaders = []string{"split", "diagnostic_superclass", "count", "split_total", "share"}

// Summarizer writes the class distribution summary of a run
type Summarizer struct {
	logger    *slog.Logger
	csvWriter *exporter.CSVWriter
}

// NewSummarizer creates a summarizer writing through csvWriter
func NewSummarizer(logger *slog.Logger, csvWriter *exporter.CSVWriter) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if csvWriter == nil {
		csvWriter = exporter.NewCSVWriter("", logger)
	}
	return &Summarizer{logger: logger, csvWriter: csvWriter}
}

// Records renders counts as CSV rows. Unlabeled records appear with an empty
// class.
func (s *Summarizer) Records(counts []ClassCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			c.Split,
			c.Class,
			exporter.FormatInt(c.Count),
			exporter.FormatInt(c.Total),
			exporter.FormatFloat(c.Share(), 4),
		})
	}
	return rows
}

// WriteSummary writes counts to path
func (s *Summarizer) WriteSummary(path string, counts []ClassCount) error {
	if path == "" {
		return apperrors.NewValidationError("summary path is empty", nil)
	}
	if err := s.csvWriter.WriteCSV(path, exporter.WriteOptions{
		Headers: SummaryHeaders,
		Records: s.Records(counts),
	}); err != nil {
		return err
	}

	s.logger.Info("Class distribution summary written",
		slog.String("path", s.csvWriter.ResolvePath(path)),
		slog.Int("rows", len(counts)))
	return nil
}
