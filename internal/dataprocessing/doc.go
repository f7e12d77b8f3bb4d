// Package dataprocessing turns a PTB-XL release into model inputs.
//
// LoadRawData reads the WFDB waveform of every record at one sampling rate
// and stacks them into a Signals tensor of shape records x samples x leads.
// Preprocess runs the whole pipeline: it reads the database and statement
// tables, derives diagnostic labels, scales ages, loads the waveforms, builds
// the feature and merged tables and writes the merged table as CSV.
//
// # Usage
//
//	res, err := dataprocessing.Preprocess(ctx, dataprocessing.Options{
//	    DatabasePath:   "ptbxl/ptbxl_database.csv",
//	    StatementsPath: "ptbxl/scp_statements.csv",
//	    OutputPath:     "out/ptbxl_processed.csv",
//	    SamplingRate:   100,
//	    BasePath:       "ptbxl",
//	})
//	if err != nil {
//	    return err
//	}
//	x := res.Signals.Record(0) // 1000 x 12 at 100 Hz
//
// # Error Handling
//
// Every error is fatal to the run and is returned wrapped with the record or
// file it concerns. Classification follows internal/errors: a missing file is
// a STORAGE error that still matches fs.ErrNotExist, a malformed file is a
// PARSING error and disagreeing waveform dimensions are a SHAPE error.
//
// # Concurrency
//
// Loading is sequential unless WithWorkers is given. Parallel loads keep the
// input order because each worker writes only its own slot of the tensor.
package dataprocessing
