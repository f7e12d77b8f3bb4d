package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded by a preprocessing run.
// All methods are safe on a nil receiver.
type PipelineMetrics struct {
	recordsLoaded  metric.Int64Counter
	bytesRead      metric.Int64Counter
	loadDuration   metric.Float64Histogram
	recordsDropped metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewPipelineMetrics creates the preprocessing instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	recordsLoaded, err := meter.Int64Counter(
		"ptbxl_records_loaded",
		metric.WithDescription("Number of waveform records read from disk"),
	)
	if err != nil {
		return nil, err
	}

	bytesRead, err := meter.Int64Counter(
		"ptbxl_signal_read",
		metric.WithDescription("Bytes of WFDB signal data read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"ptbxl_record_load_duration",
		metric.WithDescription("Time to read and decode one waveform record"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsDropped, err := meter.Int64Counter(
		"ptbxl_records_dropped",
		metric.WithDescription("Records removed from the dataset before waveform loading"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"ptbxl_preprocess_duration",
		metric.WithDescription("Wall time of a full preprocessing run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		recordsLoaded:  recordsLoaded,
		bytesRead:      bytesRead,
		loadDuration:   loadDuration,
		recordsDropped: recordsDropped,
		runDuration:    runDuration,
	}, nil
}

// RecordLoaded records one decoded waveform
func (m *PipelineMetrics) RecordLoaded(ctx context.Context, samplingRate int, bytes int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int("sampling_rate", samplingRate))
	m.recordsLoaded.Add(ctx, 1, attrs)
	m.bytesRead.Add(ctx, bytes, attrs)
	m.loadDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordsDropped records records filtered out for the given reason
func (m *PipelineMetrics) RecordsDropped(ctx context.Context, n int, reason string) {
	if m == nil || n == 0 {
		return
	}
	m.recordsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// RunCompleted records the duration of a finished run
func (m *PipelineMetrics) RunCompleted(ctx context.Context, elapsed time.Duration, success bool) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}
