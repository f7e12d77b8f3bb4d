package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"ptbxl/internal/config"
	"ptbxl/internal/infrastructure"
	"ptbxl/internal/wfdb"
)

// LeadStats summarizes one signal of a record in physical units
type LeadStats struct {
	Name     string  `json:"name"`
	Units    string  `json:"units"`
	Format   int     `json:"format"`
	Gain     float64 `json:"gain"`
	Baseline int     `json:"baseline"`
	Checksum int     `json:"checksum"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Invalid  int     `json:"invalid"`
}

// RecordInfo is the output of the inspect command
type RecordInfo struct {
	Path              string      `json:"path"`
	Name              string      `json:"name"`
	SamplingFrequency float64     `json:"sampling_frequency"`
	Samples           int         `json:"samples"`
	DurationSeconds   float64     `json:"duration_seconds"`
	ChecksumsValid    bool        `json:"checksums_valid"`
	Comments          []string    `json:"comments,omitempty"`
	Leads             []LeadStats `json:"leads"`
}

func newInspectCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "inspect <record>",
		Short: "Show the header and per-lead statistics of a WFDB record",
		Long: `Reads a WFDB record and prints its header fields together with the mean,
standard deviation and range of every lead in physical units.

The record is given without extension, either as a path or as a
filename_lr/filename_hr value relative to the dataset root.`,
		Example: `  ptbxl inspect records100/00000/00001_lr
  ptbxl inspect /data/ptbxl/records500/00000/00001_hr -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := infrastructure.WithComponent(infrastructure.NewLogger(cmd.ErrOrStderr(), logLevel), "inspect")

			path := strings.TrimSuffix(strings.TrimSuffix(args[0], ".hea"), ".dat")
			if _, err := os.Stat(path + ".hea"); err != nil {
				cfg, cfgErr := config.Load(getConfigFile(cmd))
				if cfgErr != nil {
					return cfgErr
				}
				paths := cfg.Dataset.Paths()
				paths.LogPathResolution(logger)
				path = paths.RecordPath(path)
			}
			logger.Debug("Reading record", slog.String("path", path))

			rec, err := wfdb.ReadRecord(path)
			if err != nil {
				return err
			}
			info := describeRecord(path, rec)

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), info)
			}
			return printRecordInfo(cmd, info)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

// describeRecord computes header details and per-lead statistics. NaN
// samples are counted as invalid and left out of the statistics; a lead
// without valid samples reports zeros.
func describeRecord(path string, rec *wfdb.Record) RecordInfo {
	info := RecordInfo{
		Path:              path,
		Name:              rec.Header.RecordName,
		SamplingFrequency: rec.Header.SamplingFrequency,
		Samples:           rec.NumSamples(),
		DurationSeconds:   rec.Header.Duration(),
		ChecksumsValid:    rec.VerifyChecksums() == nil,
		Comments:          rec.Header.Comments,
		Leads:             make([]LeadStats, 0, rec.NumSignals()),
	}

	var physical *mat.Dense
	if rec.NumSamples() > 0 && rec.NumSignals() > 0 {
		physical = rec.Physical()
	}
	for j, spec := range rec.Header.Signals {
		lead := LeadStats{
			Name:     spec.Description,
			Units:    spec.Units,
			Format:   spec.Format,
			Gain:     spec.Gain,
			Baseline: spec.Baseline,
			Checksum: rec.Checksum(j),
		}
		if physical != nil {
			values := validValues(mat.Col(nil, j, physical))
			lead.Invalid = rec.NumSamples() - len(values)
			if len(values) > 0 {
				lead.Mean, lead.StdDev = stat.PopMeanStdDev(values, nil)
				lead.Min = floats.Min(values)
				lead.Max = floats.Max(values)
			}
		}
		info.Leads = append(info.Leads, lead)
	}
	return info
}

func validValues(col []float64) []float64 {
	out := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func printRecordInfo(cmd *cobra.Command, info RecordInfo) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Record:     %s\n", info.Name)
	fmt.Fprintf(w, "Path:       %s\n", info.Path)
	fmt.Fprintf(w, "Frequency:  %g Hz\n", info.SamplingFrequency)
	fmt.Fprintf(w, "Samples:    %d (%.2f s)\n", info.Samples, info.DurationSeconds)
	fmt.Fprintf(w, "Checksums:  %s\n", map[bool]string{true: "ok", false: "MISMATCH"}[info.ChecksumsValid])
	for _, c := range info.Comments {
		fmt.Fprintf(w, "#           %s\n", c)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEAD\tUNITS\tFMT\tGAIN\tMEAN\tSTD\tMIN\tMAX\tINVALID")
	for _, l := range info.Leads {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%.4f\t%.4f\t%.4f\t%.4f\t%d\n",
			l.Name, l.Units, l.Format, l.Gain, l.Mean, l.StdDev, l.Min, l.Max, l.Invalid)
	}
	return tw.Flush()
}
