package dataprocessing

import (
	"log/slog"

	"github.com/go-gota/gota/dataframe"

	"ptbxl/internal/infrastructure"
	"ptbxl/internal/ptbxl"
)

// Feature columns Preprocess can place in the feature table
const (
	FeatureAge    = "age"
	FeatureSex    = "sex"
	FeatureHeight = "height"
	FeatureWeight = "weight"
)

// DefaultFeatureColumns is used when Options.FeatureColumns is empty
var DefaultFeatureColumns = []string{FeatureAge, FeatureSex}

// Options configures a Preprocess run
type Options struct {
	// DatabasePath is ptbxl_database.csv
	DatabasePath string `validate:"required"`
	// StatementsPath is scp_statements.csv
	StatementsPath string `validate:"required"`
	// OutputPath receives the merged table as CSV
	OutputPath string `validate:"required"`
	// SamplingRate selects filename_lr (100) or filename_hr (500)
	SamplingRate int `validate:"oneof=100 500"`
	// BasePath is the directory the filename columns are relative to
	BasePath string `validate:"required"`

	// Workers bounds concurrent waveform reads; 0 means 1
	Workers int `validate:"min=0,max=64"`
	// FeatureColumns selects the feature table; empty means age and sex
	FeatureColumns []string `validate:"dive,oneof=age sex height weight"`
	// DropUnlabeled removes records without a diagnostic superclass before
	// waveforms are loaded
	DropUnlabeled   bool
	VerifyChecksums bool
	// SummaryPath, when set, receives the class distribution per split
	SummaryPath string
	// ValidationFold and TestFold default to 9 and 10
	ValidationFold int `validate:"min=0,max=10"`
	TestFold       int `validate:"min=0,max=10"`

	Metrics *infrastructure.PipelineMetrics `validate:"-"`
	Logger  *slog.Logger                    `validate:"-"`
}

// Result is everything a Preprocess run produces
type Result struct {
	// Signals holds one waveform per row of Data, in the same order
	Signals *Signals
	// Features holds the selected feature columns
	Features dataframe.DataFrame
	// Data is the merged table written to OutputPath
	Data dataframe.DataFrame
	// Labels holds the SCP codes and diagnostic classes of each row
	Labels []ptbxl.Annotation
	// Records are the rows of Data with ages scaled
	Records []ptbxl.Record
	// Split assigns every row to train, validation or test by strat_fold
	Split Split
	// Dropped counts records removed by DropUnlabeled
	Dropped int
}

func (o *Options) applyDefaults() {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if len(o.FeatureColumns) == 0 {
		o.FeatureColumns = append([]string(nil), DefaultFeatureColumns...)
	}
	if o.ValidationFold == 0 {
		o.ValidationFold = DefaultValidationFold
	}
	if o.TestFold == 0 {
		o.TestFold = DefaultTestFold
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// PartitionSignals copies the waveforms of each split partition into its own
// tensor, keyed by split name
func (r *Result) PartitionSignals() map[string]*Signals {
	out := make(map[string]*Signals, 3)
	for _, p := range r.Split.Partitions() {
		out[p.Name] = r.Signals.Subset(p.Indices)
	}
	return out
}
