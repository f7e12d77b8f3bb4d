package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/ptbxl"
	"ptbxl/internal/wfdb"
)

// ExpectedLeads is the lead count of every PTB-XL waveform
const ExpectedLeads = 12

const instrumentationName = "ptbxl/internal/dataprocessing"

// startSpan starts a span on the current global tracer provider
func startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// LoadObserver is notified after each waveform is read
type LoadObserver interface {
	RecordLoaded(ctx context.Context, samplingRate int, bytes int64, elapsed time.Duration)
}

// LoadOption configures LoadRawData
type LoadOption func(*loadConfig)

type loadConfig struct {
	workers   int
	checksums bool
	observer  LoadObserver
	logger    *slog.Logger
}

// WithWorkers sets how many files are read concurrently. Values below 1 mean
// sequential reading.
func WithWorkers(n int) LoadOption {
	return func(c *loadConfig) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithChecksums verifies the WFDB checksum of every signal
func WithChecksums(enabled bool) LoadOption {
	return func(c *loadConfig) { c.checksums = enabled }
}

// WithMetrics reports every loaded waveform to m
func WithMetrics(m LoadObserver) LoadOption {
	return func(c *loadConfig) { c.observer = m }
}

// WithLogger sets the logger used for progress messages
func WithLogger(l *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// LoadRawData reads the waveform of every record at samplingRate (100 reads
// filename_lr, 500 reads filename_hr) from under basePath and stacks them in
// input order. Every waveform must have ExpectedLeads leads and the same
// number of samples.
func LoadRawData(ctx context.Context, records []ptbxl.Record, samplingRate int, basePath string, opts ...LoadOption) (*Signals, error) {
	cfg := loadConfig{workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := startSpan(ctx, "LoadRawData", trace.WithAttributes(
		attribute.Int("ptbxl.records", len(records)),
		attribute.Int("ptbxl.sampling_rate", samplingRate),
		attribute.Int("ptbxl.workers", cfg.workers),
	))
	defer span.End()

	signals, err := loadRawData(ctx, records, samplingRate, basePath, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return signals, nil
}

func loadRawData(ctx context.Context, records []ptbxl.Record, samplingRate int, basePath string, cfg loadConfig) (*Signals, error) {
	if _, err := (ptbxl.Record{}).Filename(samplingRate); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return NewSignals(0, 0, ExpectedLeads), nil
	}

	start := time.Now()
	cfg.logger.InfoContext(ctx, "Loading waveforms",
		slog.Int("records", len(records)),
		slog.Int("sampling_rate", samplingRate),
		slog.Int("workers", cfg.workers))

	// The first record fixes the sample count for the whole tensor.
	first, err := readWaveform(ctx, records[0], samplingRate, basePath, cfg)
	if err != nil {
		return nil, err
	}
	signals := NewSignals(len(records), first.NumSamples(), ExpectedLeads)
	first.PhysicalInto(signals.slot(0))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := 1; i < len(records); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := readWaveform(gctx, records[i], samplingRate, basePath, cfg)
			if err != nil {
				return err
			}
			if rec.NumSamples() != signals.Samples {
				return apperrors.NewShapeError(fmt.Sprintf(
					"record %d has %d samples, expected %d like record %d",
					records[i].ECGID, rec.NumSamples(), signals.Samples, records[0].ECGID)).
					WithContext("ecg_id", records[i].ECGID)
			}
			rec.PhysicalInto(signals.slot(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that raced the last file is still a failed load.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg.logger.InfoContext(ctx, "Waveforms loaded",
		slog.Int("records", signals.Records),
		slog.Int("samples", signals.Samples),
		slog.Int("leads", signals.Leads),
		slog.Duration("duration", time.Since(start)))
	return signals, nil
}

// readWaveform reads and checks one record
func readWaveform(ctx context.Context, r ptbxl.Record, samplingRate int, basePath string, cfg loadConfig) (*wfdb.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filename, err := r.Filename(samplingRate)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("record %d has no filename for %d Hz", r.ECGID, samplingRate), nil)
	}

	start := time.Now()
	rec, err := wfdb.ReadRecord(filepath.Join(basePath, filepath.FromSlash(filename)))
	if err != nil {
		return nil, fmt.Errorf("load record %d (%s): %w", r.ECGID, filename, err)
	}
	if rec.NumSignals() != ExpectedLeads {
		return nil, apperrors.NewShapeError(fmt.Sprintf(
			"record %d has %d leads, expected %d", r.ECGID, rec.NumSignals(), ExpectedLeads)).
			WithContext("file", filename)
	}
	if cfg.checksums {
		if err := rec.VerifyChecksums(); err != nil {
			return nil, fmt.Errorf("load record %d (%s): %w", r.ECGID, filename, err)
		}
	}
	if cfg.observer != nil {
		cfg.observer.RecordLoaded(ctx, samplingRate, rec.BytesRead, time.Since(start))
	}
	cfg.logger.DebugContext(ctx, "Waveform read",
		slog.Int("ecg_id", r.ECGID),
		slog.String("file", filename),
		slog.Int("samples", rec.NumSamples()))
	return rec, nil
}
