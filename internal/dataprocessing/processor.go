package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/exporter"
	"ptbxl/internal/files"
	"ptbxl/internal/infrastructure"
	"ptbxl/internal/ptbxl"
	"ptbxl/internal/validation"
)

// Processor runs the preprocessing pipeline
type Processor struct {
	opts       Options
	logger     *slog.Logger
	validator  *validation.FileValidator
	csvWriter  *exporter.CSVWriter
	summarizer *Summarizer
}

// NewProcessor validates opts and prepares a processor
func NewProcessor(opts Options) (*Processor, error) {
	opts.applyDefaults()
	if err := validation.ValidateStruct(opts); err != nil {
		return nil, err
	}
	if opts.ValidationFold == opts.TestFold {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("validation and test fold must differ, both are %d", opts.ValidationFold), nil)
	}

	logger := infrastructure.WithComponent(opts.Logger, "preprocess")
	csvWriter := exporter.NewCSVWriter("", logger)
	return &Processor{
		opts:       opts,
		logger:     logger,
		validator:  validation.NewFileValidator(logger),
		csvWriter:  csvWriter,
		summarizer: NewSummarizer(logger, csvWriter),
	}, nil
}

// Preprocess reads the PTB-XL tables, derives labels, scales ages, loads the
// waveforms and writes the merged table to opts.OutputPath
func Preprocess(ctx context.Context, opts Options) (*Result, error) {
	p, err := NewProcessor(opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Run executes the pipeline once
func (p *Processor) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := startSpan(ctx, "Preprocess", trace.WithAttributes(
		attribute.String("ptbxl.database", p.opts.DatabasePath),
		attribute.Int("ptbxl.sampling_rate", p.opts.SamplingRate),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.ErrorContext(ctx, "Preprocessing failed", slog.String("error", err.Error()))
		}
		p.opts.Metrics.RunCompleted(ctx, time.Since(start), err == nil)
		span.End()
	}()

	p.logger.InfoContext(ctx, "Preprocessing started",
		slog.String("database", p.opts.DatabasePath),
		slog.String("statements", p.opts.StatementsPath),
		slog.String("base_path", p.opts.BasePath),
		slog.Int("sampling_rate", p.opts.SamplingRate),
		slog.Int("workers", p.opts.Workers))

	if err := p.validateInputs(); err != nil {
		return nil, err
	}

	records, statements, err := p.readTables(ctx)
	if err != nil {
		return nil, err
	}

	labels := ptbxl.Annotate(records, statements)
	dropped := 0
	if p.opts.DropUnlabeled {
		records, labels, dropped = dropUnlabeled(records, labels)
		p.opts.Metrics.RecordsDropped(ctx, dropped, "unlabeled")
		p.logger.InfoContext(ctx, "Dropped records without diagnostic superclass",
			slog.Int("dropped", dropped),
			slog.Int("remaining", len(records)))
	}

	records = ptbxl.ScaleAges(records)

	signals, err := LoadRawData(ctx, records, p.opts.SamplingRate, p.opts.BasePath,
		WithWorkers(p.opts.Workers),
		WithChecksums(p.opts.VerifyChecksums),
		WithMetrics(p.opts.Metrics),
		WithLogger(p.logger))
	if err != nil {
		return nil, err
	}

	features, err := FeatureFrame(records, p.opts.FeatureColumns)
	if err != nil {
		return nil, err
	}
	data, err := MergedFrame(records, labels)
	if err != nil {
		return nil, err
	}

	split, err := SplitByFold(records, p.opts.ValidationFold, p.opts.TestFold)
	if err != nil {
		return nil, err
	}

	if err := p.writeOutputs(ctx, split, labels, data); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "Preprocessing completed",
		slog.Int("records", signals.Records),
		slog.Int("samples", signals.Samples),
		slog.Int("leads", signals.Leads),
		slog.String("output", p.opts.OutputPath),
		slog.Duration("duration", time.Since(start)))

	return &Result{
		Signals:  signals,
		Features: features,
		Data:     data,
		Labels:   labels,
		Records:  records,
		Split:    split,
		Dropped:  dropped,
	}, nil
}

func (p *Processor) validateInputs() error {
	if err := p.validator.ValidateCSVFile(p.opts.DatabasePath); err != nil {
		return fmt.Errorf("database file: %w", err)
	}
	if err := p.validator.ValidateCSVFile(p.opts.StatementsPath); err != nil {
		return fmt.Errorf("statements file: %w", err)
	}
	if err := p.validator.ValidateInputDirectory(p.opts.BasePath, files.RecordsDir(p.opts.SamplingRate)); err != nil {
		return fmt.Errorf("base path: %w", err)
	}
	if err := p.validator.ValidateOutputFile(p.opts.OutputPath); err != nil {
		return fmt.Errorf("output path: %w", err)
	}
	if p.opts.SummaryPath != "" {
		if err := p.validator.ValidateOutputFile(p.opts.SummaryPath); err != nil {
			return fmt.Errorf("summary path: %w", err)
		}
	}
	return nil
}

func (p *Processor) readTables(ctx context.Context) ([]ptbxl.Record, ptbxl.Statements, error) {
	_, span := startSpan(ctx, "ReadTables")
	defer span.End()

	records, err := ptbxl.LoadDatabase(p.opts.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read database: %w", err)
	}
	statements, err := ptbxl.LoadStatements(p.opts.StatementsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read statements: %w", err)
	}

	span.SetAttributes(
		attribute.Int("ptbxl.records", len(records)),
		attribute.Int("ptbxl.statements", len(statements)))
	p.logger.InfoContext(ctx, "Metadata loaded",
		slog.Int("records", len(records)),
		slog.Int("statements", len(statements)),
		slog.Int("diagnostic_statements", len(statements.Diagnostic())))
	return records, statements, nil
}

func (p *Processor) writeOutputs(ctx context.Context, split Split, labels []ptbxl.Annotation, data dataframe.DataFrame) error {
	_, span := startSpan(ctx, "WriteOutputs")
	defer span.End()

	if err := p.csvWriter.WriteFrame(p.opts.OutputPath, data); err != nil {
		return fmt.Errorf("write processed table: %w", err)
	}

	if p.opts.SummaryPath == "" {
		return nil
	}
	if err := p.summarizer.WriteSummary(p.opts.SummaryPath, ClassDistribution(split, labels)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	span.SetAttributes(attribute.String("ptbxl.summary", filepath.Base(p.opts.SummaryPath)))
	return nil
}

// dropUnlabeled removes records whose annotation has no superclass
func dropUnlabeled(records []ptbxl.Record, labels []ptbxl.Annotation) ([]ptbxl.Record, []ptbxl.Annotation, int) {
	keptRecords := make([]ptbxl.Record, 0, len(records))
	keptLabels := make([]ptbxl.Annotation, 0, len(labels))
	for i, l := range labels {
		if l.Labeled() {
			keptRecords = append(keptRecords, records[i])
			keptLabels = append(keptLabels, l)
		}
	}
	return keptRecords, keptLabels, len(records) - len(keptRecords)
}
