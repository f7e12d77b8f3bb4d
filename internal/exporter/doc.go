// Package exporter writes CSV output files.
//
// CSVWriter resolves relative paths against an output directory, creates
// missing parent directories and writes either raw string records or a gota
// DataFrame. Frames are written to a temporary file and renamed into place,
// so a failed run never leaves a half-written output behind.
//
//	w := exporter.NewCSVWriter("data/processed", logger)
//	if err := w.WriteFrame("ptbxl_processed.csv", df); err != nil {
//	    return err
//	}
package exporter
