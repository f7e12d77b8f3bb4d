// Package wfdb reads PhysioNet WFDB records: a text header (.hea) describing
// the signals and a binary signal file (.dat) holding the samples.
//
// Only single-segment records whose signals share one signal file and one
// storage format are supported. That covers every PTB-XL record. Supported
// formats are 16 (little-endian int16), 80 (8-bit offset binary) and 212
// (two 12-bit samples packed into three bytes).
//
//	rec, err := wfdb.ReadRecord("ptbxl/records100/00000/00001_lr")
//	if err != nil {
//	    return err
//	}
//	signal := rec.Physical() // samples x signals, in physical units
//
// Physical values are (digital - baseline) / gain. Digital values equal to a
// format's invalid-sample sentinel decode to NaN.
package wfdb
