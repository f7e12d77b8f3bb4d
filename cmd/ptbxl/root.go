package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ptbxl/internal/config"
	apperrors "ptbxl/internal/errors"
)

var (
	version = config.AppVersion
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		printError(rootCmd.ErrOrStderr(), output, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		output     string
	)

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "PTB-XL ECG preprocessing",
		Long:          "Reads the PTB-XL metadata tables and WFDB waveforms and writes a merged, labelled table ready for training.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default $"+config.ConfigFileEnv+", config.yaml or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newPreprocessCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func getConfigFile(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("config")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(w io.Writer, output string, err error) {
	if output != "json" {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	errObj := map[string]interface{}{"error": err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		errObj["type"] = appErr.Type
		if len(appErr.Context) > 0 {
			errObj["context"] = appErr.Context
		}
	}
	_ = printJSON(w, errObj)
}
