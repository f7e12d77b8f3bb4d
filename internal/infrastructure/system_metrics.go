package infrastructure

import (
	"context"
	"runtime"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics samples Go runtime statistics, once at the end of a run
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcCount         metric.Int64Gauge
	cpuCount        metric.Int64Gauge
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Heap memory allocated by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	cpuCount, err := meter.Int64Gauge(
		"system_cpu_count",
		metric.WithDescription("Number of logical CPUs"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:      goRoutines,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		gcCount:         gcCount,
		cpuCount:        cpuCount,
	}, nil
}

// Record samples the runtime once. Safe on a nil receiver.
func (s *SystemMetrics) Record(ctx context.Context) {
	if s == nil {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s.goRoutines.Record(ctx, int64(runtime.NumGoroutine()))
	s.memoryAllocated.Record(ctx, int64(m.HeapAlloc))
	s.memorySystem.Record(ctx, int64(m.Sys))
	s.gcCount.Record(ctx, int64(m.NumGC))
	s.cpuCount.Record(ctx, int64(runtime.NumCPU()))
}
