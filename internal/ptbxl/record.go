package ptbxl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "ptbxl/internal/errors"
)

// Database column names
const (
	ColECGID      = "ecg_id"
	ColPatientID  = "patient_id"
	ColAge        = "age"
	ColSex        = "sex"
	ColHeight     = "height"
	ColWeight     = "weight"
	ColSCPCodes   = "scp_codes"
	ColStratFold  = "strat_fold"
	ColFilenameLR = "filename_lr"
	ColFilenameHR = "filename_hr"
)

// RequiredColumns must be present in every database file
var RequiredColumns = []string{
	ColECGID, ColSCPCodes, ColAge, ColSex, ColStratFold, ColFilenameLR, ColFilenameHR,
}

// Sampling rates with a filename column
const (
	SamplingRateLow  = 100
	SamplingRateHigh = 500
)

var (
	// ErrMissingColumn marks a CSV file without a required column
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnknownSamplingRate marks a sampling rate PTB-XL does not provide
	ErrUnknownSamplingRate = errors.New("unknown sampling rate")
)

// Record is one row of ptbxl_database.csv. Missing numeric cells are NaN.
type Record struct {
	ECGID     int
	PatientID float64
	Age       float64
	Sex       float64
	Height    float64
	Weight    float64
	// SCPCodes maps statement code to likelihood in percent
	SCPCodes map[string]float64
	// SCPCodesRaw is the cell as stored in the file
	SCPCodesRaw string
	StratFold   int
	FilenameLR  string
	FilenameHR  string
}

// Filename returns the waveform path, relative to the dataset root, for the
// given sampling rate
func (r Record) Filename(samplingRate int) (string, error) {
	switch samplingRate {
	case SamplingRateLow:
		return r.FilenameLR, nil
	case SamplingRateHigh:
		return r.FilenameHR, nil
	default:
		return "", apperrors.NewValidationError(
			fmt.Sprintf("sampling rate %d: want %d or %d", samplingRate, SamplingRateLow, SamplingRateHigh),
			ErrUnknownSamplingRate)
	}
}

func (r Record) clone() Record {
	out := r
	if r.SCPCodes != nil {
		out.SCPCodes = make(map[string]float64, len(r.SCPCodes))
		for k, v := range r.SCPCodes {
			out.SCPCodes[k] = v
		}
	}
	return out
}

// LoadDatabase reads ptbxl_database.csv from path
func LoadDatabase(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open database file", err).WithContext("path", path)
	}
	defer f.Close()

	records, err := ReadDatabase(f)
	if err != nil {
		return nil, withContext(err, "path", path)
	}
	return records, nil
}

// ReadDatabase parses the PTB-XL database table from r
func ReadDatabase(r io.Reader) ([]Record, error) {
	rows, cols, err := readTable(r, RequiredColumns)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRecord(row, cols)
		if err != nil {
			// header is line 1
			return nil, apperrors.NewParsingError("parse database row", err).WithContext("line", i+2)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(row []string, cols columnIndex) (Record, error) {
	var rec Record
	var err error

	if rec.ECGID, err = parseInt(cols.get(row, ColECGID)); err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColECGID, err)
	}
	if rec.StratFold, err = parseInt(cols.get(row, ColStratFold)); err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColStratFold, err)
	}

	floats := []struct {
		name   string
		target *float64
	}{
		{ColPatientID, &rec.PatientID},
		{ColAge, &rec.Age},
		{ColSex, &rec.Sex},
		{ColHeight, &rec.Height},
		{ColWeight, &rec.Weight},
	}
	for _, f := range floats {
		if *f.target, err = parseFloat(cols.get(row, f.name)); err != nil {
			return Record{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	rec.SCPCodesRaw = cols.get(row, ColSCPCodes)
	if rec.SCPCodes, err = ParseSCPCodes(rec.SCPCodesRaw); err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColSCPCodes, err)
	}

	rec.FilenameLR = cols.get(row, ColFilenameLR)
	rec.FilenameHR = cols.get(row, ColFilenameHR)
	return rec, nil
}

// columnIndex maps a header name to its position
type columnIndex map[string]int

// get returns the trimmed cell for name, or "" when the column is absent
func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable reads a CSV with a header row and checks that required columns
// exist
func readTable(r io.Reader, required []string) ([][]string, columnIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, apperrors.NewParsingError("empty CSV file", nil)
	}
	if err != nil {
		return nil, nil, apperrors.NewParsingError("read CSV header", err)
	}

	cols := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, apperrors.NewParsingError("read CSV header", fmt.Errorf("%w: %s", ErrMissingColumn, name))
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError("read CSV records", err)
	}
	return rows, cols, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	// pandas writes integer columns holding NaN as floats, e.g. "3.0"
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func withContext(err error, key string, value interface{}) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.WithContext(key, value)
	}
	return err
}
