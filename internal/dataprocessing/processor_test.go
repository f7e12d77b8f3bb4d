package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/ptbxl"
	"ptbxl/internal/shared/testutil"
)

func fixtureOptions(t *testing.T, ds *testutil.FixtureDataset) Options {
	t.Helper()
	out := t.TempDir()
	return Options{
		DatabasePath:   ds.Database,
		StatementsPath: ds.Statements,
		OutputPath:     filepath.Join(out, "ptbxl_processed.csv"),
		SamplingRate:   ptbxl.SamplingRateLow,
		BasePath:       ds.Root,
	}
}

func TestPreprocess(t *testing.T) {
	ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())
	logger, handler := testutil.NewTestLogger(t)

	opts := fixtureOptions(t, ds)
	opts.Workers = 3
	opts.Logger = logger

	res, err := Preprocess(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, [3]int{4, testutil.FixtureSamplesLR, ExpectedLeads}, res.Signals.Shape())
	assert.Equal(t, 0, res.Dropped)

	rows, cols := res.Features.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []float64{56, 0, 37, 24}, res.Features.Col(FeatureAge).Float())
	assert.Equal(t, []float64{1, 0, 1, 0}, res.Features.Col(FeatureSex).Float())

	assert.Equal(t, []string{"NORM", "MI", "HYP|STTC", ""}, res.Data.Col(ColDiagnosticSuperclass).Records())
	assert.Equal(t, []string{"NORM", "AMI|IMI", "LVH|STTC", ""}, res.Data.Col(ColDiagnosticSubclass).Records())
	require.Len(t, res.Labels, 4)
	assert.False(t, res.Labels[3].Labeled())

	// row i of the signal tensor belongs to row i of the table
	for i, r := range res.Records {
		want := float64(testutil.FixtureSample(r.ECGID, 0, 0)) / testutil.FixtureGain
		assert.InDelta(t, want, res.Signals.At(i, 0, 0), 1e-9)
	}

	assert.Equal(t, Split{Train: []int{0, 3}, Validation: []int{1}, Test: []int{2}}, res.Split)
	parts := res.PartitionSignals()
	require.Len(t, parts, 3)
	assert.Equal(t, [3]int{2, testutil.FixtureSamplesLR, ExpectedLeads}, parts[SplitTrain].Shape())
	assert.Equal(t, res.Signals.At(3, 5, 7), parts[SplitTrain].At(1, 5, 7))
	assert.Equal(t, res.Signals.At(2, 0, 0), parts[SplitTest].At(0, 0, 0))

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Preprocessing completed")
	testutil.AssertNoErrors(t, handler)
}

func TestPreprocess_OutputRoundTrip(t *testing.T) {
	ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())
	opts := fixtureOptions(t, ds)

	_, err := Preprocess(context.Background(), opts)
	require.NoError(t, err)

	f, err := os.Open(opts.OutputPath)
	require.NoError(t, err)
	defer f.Close()

	df := dataframe.ReadCSV(f)
	require.NoError(t, df.Err)
	assert.Equal(t, MergedColumns, df.Names())

	ids, err := df.Col(ptbxl.ColECGID).Int()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
	assert.Equal(t, []float64{56, 0, 37, 24}, df.Col(ptbxl.ColAge).Float())
	assert.Equal(t, []float64{63, 70}, df.Col(ptbxl.ColWeight).Float()[:2])
	assert.Equal(t, testutil.FixtureFilename(3, 100), df.Col(ptbxl.ColFilenameLR).Records()[2])
}

func TestPreprocess_DropUnlabeledWithSummary(t *testing.T) {
	ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())
	opts := fixtureOptions(t, ds)
	opts.SamplingRate = ptbxl.SamplingRateHigh
	opts.DropUnlabeled = true
	opts.VerifyChecksums = true
	opts.FeatureColumns = []string{FeatureAge, FeatureWeight}
	opts.SummaryPath = filepath.Join(t.TempDir(), "summary.csv")

	res, err := Preprocess(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, [3]int{3, testutil.FixtureSamplesHR, ExpectedLeads}, res.Signals.Shape())
	assert.Equal(t, []string{FeatureAge, FeatureWeight}, res.Features.Names())
	for _, r := range res.Records {
		assert.NotEqual(t, 4, r.ECGID)
	}

	f, err := os.Open(opts.SummaryPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		SummaryHeaders,
		{"train", "NORM", "1", "1", "1.0000"},
		{"validation", "MI", "1", "1", "1.0000"},
		{"test", "HYP", "1", "1", "1.0000"},
		{"test", "STTC", "1", "1", "1.0000"},
	}, rows)
}

func TestPreprocess_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())
	_, err := Preprocess(context.Background(), fixtureOptions(t, ds))
	require.NoError(t, err)

	names := make(map[string]bool)
	var root sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
		if s.Name() == "Preprocess" {
			root = s
		}
	}
	for _, name := range []string{"Preprocess", "ReadTables", "LoadRawData", "WriteOutputs"} {
		assert.True(t, names[name], "missing span %s", name)
	}
	require.NotNil(t, root)
	for _, s := range recorder.Ended() {
		if s.Name() != "Preprocess" {
			assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID(), s.Name())
		}
	}
}

func TestNewProcessor_InvalidOptions(t *testing.T) {
	valid := Options{
		DatabasePath:   "ptbxl_database.csv",
		StatementsPath: "scp_statements.csv",
		OutputPath:     "out.csv",
		SamplingRate:   100,
		BasePath:       ".",
	}

	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"missing database", func(o *Options) { o.DatabasePath = "" }},
		{"unsupported sampling rate", func(o *Options) { o.SamplingRate = 250 }},
		{"too many workers", func(o *Options) { o.Workers = 100 }},
		{"unknown feature", func(o *Options) { o.FeatureColumns = []string{"bmi"} }},
		{"same folds", func(o *Options) { o.ValidationFold, o.TestFold = 10, 10 }},
		{"fold out of range", func(o *Options) { o.TestFold = 11 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.modify(&opts)
			_, err := NewProcessor(opts)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}

	_, err := NewProcessor(valid)
	assert.NoError(t, err)
}

func TestPreprocess_MissingInputs(t *testing.T) {
	ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())

	tests := []struct {
		name   string
		modify func(o *Options)
		want   string
	}{
		{"database", func(o *Options) { o.DatabasePath = filepath.Join(ds.Root, "missing.csv") }, "database file"},
		{"statements", func(o *Options) { o.StatementsPath = filepath.Join(ds.Root, "missing.csv") }, "statements file"},
		{"base path", func(o *Options) { o.BasePath = filepath.Join(ds.Root, "missing") }, "base path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fixtureOptions(t, ds)
			tt.modify(&opts)

			_, err := Preprocess(context.Background(), opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, opts.OutputPath)
		})
	}
}

func TestPreprocess_MissingWaveform(t *testing.T) {
	records := testutil.DefaultFixtureRecords()
	records[1].SkipWaveform = true
	ds := testutil.WritePTBXL(t, t.TempDir(), records)
	opts := fixtureOptions(t, ds)

	_, err := Preprocess(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.NoFileExists(t, opts.OutputPath)
}
