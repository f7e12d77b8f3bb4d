package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ptbxl/internal/config"
	"ptbxl/internal/files"
	"ptbxl/internal/infrastructure"
	"ptbxl/internal/ptbxl"
	"ptbxl/internal/validation"
)

// scanReport is the output of the scan command
type scanReport struct {
	Root         string   `json:"root"`
	SamplingRate int      `json:"sampling_rate"`
	Rows         int      `json:"rows"`
	OnDisk       int      `json:"on_disk"`
	Referenced   int      `json:"referenced"`
	Missing      []string `json:"missing"`
	NoSignal     []string `json:"no_signal"`
	Unreferenced []string `json:"unreferenced"`
	Complete     bool     `json:"complete"`
}

func newScanCmd() *cobra.Command {
	var (
		root         string
		samplingRate int
		strict       bool
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Check that every record in the database has its waveform files",
		Long: `Walks the records directory of the selected sampling rate and compares the
headers found with the filename column of the database. Records without a
header or without a signal file would make preprocess fail.`,
		Example: `  ptbxl scan --root data/ptbxl --sampling-rate 500
  ptbxl scan --strict -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(getConfigFile(cmd))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("root") {
				cfg.Dataset.Root = root
			}
			if cmd.Flags().Changed("sampling-rate") {
				cfg.Dataset.SamplingRate = samplingRate
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := infrastructure.WithComponent(infrastructure.NewLogger(cmd.ErrOrStderr(), logLevel), "scan")
			paths := cfg.Dataset.Paths()
			paths.LogPathResolution(logger)

			if err := validation.NewFileValidator(logger).ValidateCSVFile(paths.Database); err != nil {
				return fmt.Errorf("database file: %w", err)
			}
			records, err := ptbxl.LoadDatabase(paths.Database)
			if err != nil {
				return err
			}
			referenced := make([]string, 0, len(records))
			for _, r := range records {
				name, err := r.Filename(cfg.Dataset.SamplingRate)
				if err != nil {
					return err
				}
				referenced = append(referenced, name)
			}

			onDisk, err := files.NewDiscovery(paths.Root).FindRecords(cfg.Dataset.SamplingRate)
			if err != nil {
				return err
			}
			rec := files.Reconcile(onDisk, referenced)
			logger.Info("Scan finished",
				slog.Int("on_disk", rec.OnDisk),
				slog.Int("referenced", rec.Referenced),
				slog.Int("missing", len(rec.Missing)),
				slog.Int("no_signal", len(rec.NoSignal)))

			report := scanReport{
				Root:         paths.Root,
				SamplingRate: cfg.Dataset.SamplingRate,
				Rows:         len(records),
				OnDisk:       rec.OnDisk,
				Referenced:   rec.Referenced,
				Missing:      rec.Missing,
				NoSignal:     rec.NoSignal,
				Unreferenced: rec.Unreferenced,
				Complete:     rec.Complete(),
			}
			if getOutputFormat(cmd) == "json" {
				err = printJSON(cmd.OutOrStdout(), report)
			} else {
				err = printScanReport(cmd, report)
			}
			if err != nil {
				return err
			}
			if strict && !report.Complete {
				return fmt.Errorf("%d of %d referenced records are incomplete",
					len(report.Missing)+len(report.NoSignal), report.Referenced)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "PTB-XL dataset root")
	cmd.Flags().IntVar(&samplingRate, "sampling-rate", config.SamplingRateLow, "Sampling rate to check (100 or 500)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when records are incomplete")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

func printScanReport(cmd *cobra.Command, r scanReport) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Root:\t%s\n", r.Root)
	fmt.Fprintf(tw, "Directory:\t%s\n", files.RecordsDir(r.SamplingRate))
	fmt.Fprintf(tw, "Database rows:\t%d\n", r.Rows)
	fmt.Fprintf(tw, "Headers on disk:\t%d\n", r.OnDisk)
	fmt.Fprintf(tw, "Missing:\t%d\n", len(r.Missing))
	fmt.Fprintf(tw, "Without signal:\t%d\n", len(r.NoSignal))
	fmt.Fprintf(tw, "Unreferenced:\t%d\n", len(r.Unreferenced))
	for _, name := range r.Missing {
		fmt.Fprintf(tw, "  missing\t%s\n", name)
	}
	for _, name := range r.NoSignal {
		fmt.Fprintf(tw, "  no signal\t%s\n", name)
	}
	return tw.Flush()
}
