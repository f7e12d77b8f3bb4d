package dataprocessing

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/ptbxl"
	"ptbxl/internal/shared/testutil"
	"ptbxl/internal/wfdb"
)

// loadFixture writes a dataset and returns its parsed database rows
func loadFixture(t *testing.T, records []testutil.FixtureRecord) (*testutil.FixtureDataset, []ptbxl.Record) {
	t.Helper()
	ds := testutil.WritePTBXL(t, t.TempDir(), records)
	rows, err := ptbxl.LoadDatabase(ds.Database)
	require.NoError(t, err)
	return ds, rows
}

type countingObserver struct {
	records atomic.Int64
	bytes   atomic.Int64
}

func (o *countingObserver) RecordLoaded(_ context.Context, _ int, bytes int64, _ time.Duration) {
	o.records.Add(1)
	o.bytes.Add(bytes)
}

func TestLoadRawData_Shape(t *testing.T) {
	ds, rows := loadFixture(t, testutil.DefaultFixtureRecords())

	tests := []struct {
		name         string
		samplingRate int
		wantSamples  int
	}{
		{"low rate", ptbxl.SamplingRateLow, testutil.FixtureSamplesLR},
		{"high rate", ptbxl.SamplingRateHigh, testutil.FixtureSamplesHR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals, err := LoadRawData(context.Background(), rows, tt.samplingRate, ds.Root)
			require.NoError(t, err)
			assert.Equal(t, [3]int{len(rows), tt.wantSamples, ExpectedLeads}, signals.Shape())

			for r, row := range rows {
				for _, pos := range [][2]int{{0, 0}, {1, 5}, {tt.wantSamples - 1, 11}} {
					want := float64(testutil.FixtureSample(row.ECGID, pos[1], pos[0])) / testutil.FixtureGain
					assert.InDelta(t, want, signals.At(r, pos[0], pos[1]), 1e-9,
						"record %d sample %d lead %d", row.ECGID, pos[0], pos[1])
				}
			}
		})
	}
}

func TestLoadRawData_Empty(t *testing.T) {
	signals, err := LoadRawData(context.Background(), nil, ptbxl.SamplingRateLow, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, 0, ExpectedLeads}, signals.Shape())
	assert.Empty(t, signals.Data)
}

func TestLoadRawData_KeepsInputOrder(t *testing.T) {
	fixtures := make([]testutil.FixtureRecord, 0, 20)
	for id := 1; id <= 20; id++ {
		fixtures = append(fixtures, testutil.FixtureRecord{
			ECGID: id, PatientID: float64(1000 + id), Age: 40, StratFold: id%10 + 1,
			SCPCodes: "{'NORM': 100.0}", SamplesLR: 50, SamplesHR: 250,
		})
	}
	ds, rows := loadFixture(t, fixtures)

	// reverse so input order differs from file order
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	obs := &countingObserver{}
	signals, err := LoadRawData(context.Background(), rows, ptbxl.SamplingRateLow, ds.Root,
		WithWorkers(4), WithMetrics(obs))
	require.NoError(t, err)

	for r, row := range rows {
		want := float64(testutil.FixtureSample(row.ECGID, 3, 0)) / testutil.FixtureGain
		assert.InDelta(t, want, signals.At(r, 0, 3), 1e-9, "row %d", r)
	}
	assert.Equal(t, int64(len(rows)), obs.records.Load())
	assert.Equal(t, int64(len(rows)*50*ExpectedLeads*2), obs.bytes.Load())
}

func TestLoadRawData_Errors(t *testing.T) {
	tests := []struct {
		name         string
		records      func() []testutil.FixtureRecord
		samplingRate int
		wantType     apperrors.ErrorType
		wantNotExist bool
	}{
		{
			name: "missing waveform",
			records: func() []testutil.FixtureRecord {
				r := testutil.DefaultFixtureRecords()
				r[2].SkipWaveform = true
				return r
			},
			samplingRate: ptbxl.SamplingRateLow,
			wantType:     apperrors.ErrTypeStorage,
			wantNotExist: true,
		},
		{
			name: "eleven leads",
			records: func() []testutil.FixtureRecord {
				r := testutil.DefaultFixtureRecords()
				r[1].Leads = 11
				return r
			},
			samplingRate: ptbxl.SamplingRateLow,
			wantType:     apperrors.ErrTypeShape,
		},
		{
			name: "sample count differs from first record",
			records: func() []testutil.FixtureRecord {
				r := testutil.DefaultFixtureRecords()
				r[3].SamplesHR = 4999
				return r
			},
			samplingRate: ptbxl.SamplingRateHigh,
			wantType:     apperrors.ErrTypeShape,
		},
		{
			name:         "unsupported sampling rate",
			records:      testutil.DefaultFixtureRecords,
			samplingRate: 250,
			wantType:     apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, rows := loadFixture(t, tt.records())

			signals, err := LoadRawData(context.Background(), rows, tt.samplingRate, ds.Root, WithWorkers(2))
			require.Error(t, err)
			assert.Nil(t, signals)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			if tt.wantNotExist {
				assert.True(t, errors.Is(err, fs.ErrNotExist))
				assert.Contains(t, err.Error(), "load record 3")
			}
		})
	}
}

func TestLoadRawData_Checksums(t *testing.T) {
	ds, rows := loadFixture(t, testutil.DefaultFixtureRecords())

	dat := filepath.Join(ds.Root, filepath.FromSlash(testutil.FixtureFilename(2, 100))) + ".dat"
	data, err := os.ReadFile(dat)
	require.NoError(t, err)
	data[0]++
	require.NoError(t, os.WriteFile(dat, data, 0o644))

	_, err = LoadRawData(context.Background(), rows, ptbxl.SamplingRateLow, ds.Root)
	require.NoError(t, err, "checksums are not verified by default")

	_, err = LoadRawData(context.Background(), rows, ptbxl.SamplingRateLow, ds.Root, WithChecksums(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, wfdb.ErrChecksumMismatch)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestLoadRawData_Cancelled(t *testing.T) {
	ds, rows := loadFixture(t, testutil.DefaultFixtureRecords())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadRawData(ctx, rows, ptbxl.SamplingRateLow, ds.Root, WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadRawData_Span(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	ds, rows := loadFixture(t, testutil.DefaultFixtureRecords())
	_, err := LoadRawData(context.Background(), rows, ptbxl.SamplingRateLow, ds.Root)
	require.NoError(t, err)
	_, err = LoadRawData(context.Background(), rows, 250, ds.Root)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "LoadRawData", spans[0].Name())
	assert.Equal(t, "Unset", spans[0].Status().Code.String())
	assert.Equal(t, "Error", spans[1].Status().Code.String())
}
