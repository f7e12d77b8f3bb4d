package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"ptbxl/internal/config"
	"ptbxl/internal/dataprocessing"
	"ptbxl/internal/infrastructure"
)

type preprocessFlags struct {
	root            string
	database        string
	statements      string
	samplingRate    int
	out             string
	summary         string
	workers         int
	features        []string
	dropUnlabeled   bool
	verifyChecksums bool
	validationFold  int
	testFold        int
	metricsFile     string
	trace           bool
	logLevel        string
	progress        bool
}

// preprocessReport is what the command prints once a run succeeds
type preprocessReport struct {
	RunID        string   `json:"run_id"`
	Records      int      `json:"records"`
	Samples      int      `json:"samples"`
	Leads        int      `json:"leads"`
	Dropped      int      `json:"dropped"`
	SamplingRate int      `json:"sampling_rate"`
	Features     []string `json:"features"`
	Output       string   `json:"output"`
	Summary      string   `json:"summary,omitempty"`
	Metrics      string   `json:"metrics,omitempty"`
}

func newPreprocessCmd() *cobra.Command {
	var f preprocessFlags

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Build the processed PTB-XL table and load the waveforms",
		Long: `Reads ptbxl_database.csv and scp_statements.csv, derives diagnostic
superclasses, scales ages above 89, loads every waveform at the selected
sampling rate and writes the merged table as CSV.

Settings come from the config file and PTBXL_* environment variables;
flags override both.`,
		Example: `  ptbxl preprocess --root data/ptbxl --sampling-rate 500 --out data/processed/ptbxl_500.csv
  ptbxl preprocess --drop-unlabeled --summary data/processed/summary.csv --workers 8 --progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(getConfigFile(cmd))
			if err != nil {
				return err
			}
			applyPreprocessFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPreprocess(cmd, cfg, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.root, "root", "", "PTB-XL dataset root (the directory holding records100/ and records500/)")
	flags.StringVar(&f.database, "database", "", "Database CSV, relative to the root unless absolute")
	flags.StringVar(&f.statements, "statements", "", "SCP statements CSV, relative to the root unless absolute")
	flags.IntVar(&f.samplingRate, "sampling-rate", config.SamplingRateLow, "Sampling rate to load (100 or 500)")
	flags.StringVar(&f.out, "out", "", "Processed table CSV")
	flags.StringVar(&f.summary, "summary", "", "Optional class distribution CSV per split")
	flags.IntVar(&f.workers, "workers", 1, "Waveform files read concurrently")
	flags.StringSliceVar(&f.features, "features", nil, "Feature columns (age, sex, height, weight)")
	flags.BoolVar(&f.dropUnlabeled, "drop-unlabeled", false, "Drop records without a diagnostic superclass")
	flags.BoolVar(&f.verifyChecksums, "verify-checksums", false, "Verify WFDB signal checksums")
	flags.IntVar(&f.validationFold, "validation-fold", config.DefaultValidationFold, "strat_fold used for validation in the summary")
	flags.IntVar(&f.testFold, "test-fold", config.DefaultTestFold, "strat_fold used for test in the summary")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.BoolVar(&f.trace, "trace", false, "Print trace spans to stderr")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&f.progress, "progress", false, "Show a spinner while preprocessing")

	return cmd
}

// applyPreprocessFlags copies explicitly set flags over the loaded config
func applyPreprocessFlags(cmd *cobra.Command, cfg *config.Config, f preprocessFlags) {
	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Dataset.Root = f.root
	}
	if changed("database") {
		cfg.Dataset.DatabaseFile = f.database
	}
	if changed("statements") {
		cfg.Dataset.StatementsFile = f.statements
	}
	if changed("sampling-rate") {
		cfg.Dataset.SamplingRate = f.samplingRate
	}
	if changed("out") {
		cfg.Processing.OutputPath = f.out
	}
	if changed("summary") {
		cfg.Processing.SummaryPath = f.summary
	}
	if changed("workers") {
		cfg.Processing.Workers = f.workers
	}
	if changed("features") {
		cfg.Processing.FeatureColumns = f.features
	}
	if changed("drop-unlabeled") {
		cfg.Processing.DropUnlabeled = f.dropUnlabeled
	}
	if changed("verify-checksums") {
		cfg.Processing.VerifyChecksums = f.verifyChecksums
	}
	if changed("metrics-file") {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
	if changed("trace") {
		cfg.Telemetry.Tracing = f.trace
	}
	if changed("log-level") {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(f.logLevel))
	}
}

func runPreprocess(cmd *cobra.Command, cfg *config.Config, f preprocessFlags) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	tel, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, cmd.ErrOrStderr(), logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if shutdownErr := tel.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
	}()

	metrics, err := infrastructure.NewPipelineMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	system, err := infrastructure.NewSystemMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("create runtime metrics: %w", err)
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)

	paths := cfg.Dataset.Paths()
	paths.LogPathResolution(logger)

	opts := dataprocessing.Options{
		DatabasePath:    paths.Database,
		StatementsPath:  paths.Statements,
		OutputPath:      cfg.Processing.OutputPath,
		SamplingRate:    cfg.Dataset.SamplingRate,
		BasePath:        paths.Root,
		Workers:         cfg.Processing.Workers,
		FeatureColumns:  cfg.Processing.FeatureColumns,
		DropUnlabeled:   cfg.Processing.DropUnlabeled,
		VerifyChecksums: cfg.Processing.VerifyChecksums,
		SummaryPath:     cfg.Processing.SummaryPath,
		ValidationFold:  f.validationFold,
		TestFold:        f.testFold,
		Metrics:         metrics,
		Logger:          logger,
	}

	var res *dataprocessing.Result
	run := func(ctx context.Context) error {
		var runErr error
		res, runErr = dataprocessing.Preprocess(ctx, opts)
		return runErr
	}
	if f.progress {
		err = spinner.New().
			Title(fmt.Sprintf("Preprocessing PTB-XL at %d Hz...", opts.SamplingRate)).
			Context(ctx).
			ActionWithErr(run).
			Run()
	} else {
		err = run(ctx)
	}

	// Metrics are written for failed runs too.
	system.Record(ctx)
	if metricsErr := tel.WriteMetrics(); metricsErr != nil {
		logger.Warn("Failed to write metrics", slog.String("error", metricsErr.Error()))
	}
	if err != nil {
		return err
	}

	features := res.Features.Names()
	report := preprocessReport{
		RunID:        runID,
		Records:      res.Signals.Records,
		Samples:      res.Signals.Samples,
		Leads:        res.Signals.Leads,
		Dropped:      res.Dropped,
		SamplingRate: opts.SamplingRate,
		Features:     features,
		Output:       opts.OutputPath,
		Summary:      opts.SummaryPath,
		Metrics:      cfg.Telemetry.MetricsFile,
	}
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), report)
	}
	return printPreprocessReport(cmd, report)
}

func printPreprocessReport(cmd *cobra.Command, r preprocessReport) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run ID:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Signals:\t%d x %d x %d\n", r.Records, r.Samples, r.Leads)
	fmt.Fprintf(tw, "Sampling rate:\t%d Hz\n", r.SamplingRate)
	fmt.Fprintf(tw, "Dropped:\t%d\n", r.Dropped)
	fmt.Fprintf(tw, "Features:\t%v\n", r.Features)
	fmt.Fprintf(tw, "Output:\t%s\n", r.Output)
	if r.Summary != "" {
		fmt.Fprintf(tw, "Summary:\t%s\n", r.Summary)
	}
	if r.Metrics != "" {
		fmt.Fprintf(tw, "Metrics:\t%s\n", r.Metrics)
	}
	return tw.Flush()
}
