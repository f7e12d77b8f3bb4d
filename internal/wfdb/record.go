package wfdb

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	apperrors "ptbxl/internal/errors"
)

var (
	// ErrMixedSignalFiles marks a record whose signals live in more than one
	// file or use more than one format
	ErrMixedSignalFiles = errors.New("signals must share one file and format")
	// ErrChecksumMismatch marks a signal whose samples do not add up to the
	// checksum stored in the header
	ErrChecksumMismatch = errors.New("signal checksum mismatch")
)

// Record is a decoded single-segment WFDB record
type Record struct {
	Header Header
	// BytesRead is the size of the signal file
	BytesRead int64

	// digital holds samples frame by frame: digital[i*NumSignals+j] is
	// sample i of signal j
	digital []int
}

// NewRecord builds a record from per-signal digital samples. All signals must
// have the same length, which becomes the header's sample count.
func NewRecord(h Header, signals [][]int) (*Record, error) {
	if len(signals) != len(h.Signals) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("header has %d signals, got %d sample slices", len(h.Signals), len(signals)), nil)
	}
	n := 0
	if len(signals) > 0 {
		n = len(signals[0])
	}
	nsig := len(signals)
	digital := make([]int, n*nsig)
	for j, s := range signals {
		if len(s) != n {
			return nil, apperrors.NewShapeError(fmt.Sprintf("signal %d has %d samples, want %d", j, len(s), n))
		}
		for i, v := range s {
			digital[i*nsig+j] = v
		}
	}
	h.NumSignals = nsig
	h.NumSamples = n
	return &Record{Header: h, digital: digital}, nil
}

// ReadRecord reads the record at path, given without extension. The header is
// path + ".hea"; signal files are resolved relative to the header directory.
func ReadRecord(path string) (*Record, error) {
	headerPath := path + ".hea"
	raw, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, apperrors.NewStorageError("read header", err).WithContext("path", headerPath)
	}
	h, err := ParseHeader(bytes.NewReader(raw))
	if err != nil {
		return nil, withPath(err, headerPath)
	}
	if h.NumSignals == 0 {
		return &Record{Header: h}, nil
	}

	file, format, offset, err := sharedStorage(h)
	if err != nil {
		return nil, apperrors.NewParsingError("read record", err).WithContext("path", headerPath)
	}

	signalPath := filepath.Join(filepath.Dir(path), file)
	data, err := os.ReadFile(signalPath)
	if err != nil {
		return nil, apperrors.NewStorageError("read signal file", err).WithContext("path", signalPath)
	}
	if offset > int64(len(data)) {
		return nil, apperrors.NewParsingError("read signal file",
			fmt.Errorf("%w: byte offset %d beyond file size %d", ErrTruncated, offset, len(data))).WithContext("path", signalPath)
	}
	payload := data[offset:]

	available := samplesIn(format, len(payload)) / h.NumSignals
	if h.NumSamples == 0 {
		// Infer the length from the file size when the header omits it.
		h.NumSamples = available
	}
	if h.NumSamples > available {
		return nil, apperrors.NewParsingError("read signal file",
			fmt.Errorf("%w: header declares %d samples per signal, file holds %d", ErrTruncated, h.NumSamples, available)).
			WithContext("path", signalPath)
	}

	digital, err := decodeSamples(format, payload, h.NumSamples*h.NumSignals)
	if err != nil {
		return nil, apperrors.NewParsingError("decode signal file", err).WithContext("path", signalPath)
	}

	return &Record{Header: h, BytesRead: int64(len(data)), digital: digital}, nil
}

func withPath(err error, path string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.WithContext("path", path)
	}
	return err
}

// sharedStorage returns the file, format and byte offset every signal uses
func sharedStorage(h Header) (string, int, int64, error) {
	first := h.Signals[0]
	for i, s := range h.Signals {
		if s.FileName != first.FileName || s.Format != first.Format || s.ByteOffset != first.ByteOffset {
			return "", 0, 0, fmt.Errorf("%w: signal %d uses %s format %d", ErrMixedSignalFiles, i, s.FileName, s.Format)
		}
		if s.SamplesPerFrame != 1 || s.Skew != 0 {
			return "", 0, 0, fmt.Errorf("%w: signal %d uses multi-frequency or skewed storage", ErrUnsupportedFormat, i)
		}
	}
	if _, err := bytesPerSamples(first.Format, 1); err != nil {
		return "", 0, 0, err
	}
	return first.FileName, first.Format, first.ByteOffset, nil
}

// NumSamples returns the number of samples per signal
func (r *Record) NumSamples() int { return r.Header.NumSamples }

// NumSignals returns the number of signals (leads)
func (r *Record) NumSignals() int { return r.Header.NumSignals }

// Digital returns the stored value of sample i of signal j
func (r *Record) Digital(i, j int) int {
	return r.digital[i*r.Header.NumSignals+j]
}

// SignalNames returns the description of each signal, e.g. the lead name
func (r *Record) SignalNames() []string {
	names := make([]string, len(r.Header.Signals))
	for j, s := range r.Header.Signals {
		names[j] = s.Description
	}
	return names
}

// Physical converts the record to physical units as a samples x signals
// matrix. Invalid samples become NaN.
func (r *Record) Physical() *mat.Dense {
	n, nsig := r.Header.NumSamples, r.Header.NumSignals
	if n == 0 || nsig == 0 {
		return &mat.Dense{}
	}
	out := make([]float64, n*nsig)
	r.PhysicalInto(out)
	return mat.NewDense(n, nsig, out)
}

// PhysicalInto writes the physical values into dst, row-major samples x
// signals. dst must hold NumSamples*NumSignals values.
func (r *Record) PhysicalInto(dst []float64) {
	nsig := r.Header.NumSignals
	invalid, hasInvalid := InvalidSample(r.format())
	for idx, d := range r.digital {
		if hasInvalid && d == invalid {
			dst[idx] = math.NaN()
			continue
		}
		s := r.Header.Signals[idx%nsig]
		dst[idx] = float64(d-s.Baseline) / s.Gain
	}
}

func (r *Record) format() int {
	if len(r.Header.Signals) == 0 {
		return 0
	}
	return r.Header.Signals[0].Format
}

// VerifyChecksums compares the 16-bit sum of each signal's samples with the
// checksum recorded in the header. Signals without a checksum are skipped.
func (r *Record) VerifyChecksums() error {
	nsig := r.Header.NumSignals
	sums := make([]int, nsig)
	for idx, d := range r.digital {
		sums[idx%nsig] += d
	}
	var errs []error
	for j, s := range r.Header.Signals {
		if !s.HasChecksum {
			continue
		}
		if got := int16(sums[j]); got != int16(s.Checksum) {
			errs = append(errs, fmt.Errorf("%w: signal %d (%s): header %d, computed %d",
				ErrChecksumMismatch, j, s.Description, s.Checksum, got))
		}
	}
	if len(errs) > 0 {
		return apperrors.NewValidationError("verify checksums", errors.Join(errs...)).
			WithContext("record", r.Header.RecordName)
	}
	return nil
}

// Checksum returns the 16-bit checksum of signal j
func (r *Record) Checksum(j int) int {
	nsig := r.Header.NumSignals
	sum := 0
	for i := 0; i < r.Header.NumSamples; i++ {
		sum += r.digital[i*nsig+j]
	}
	return int(int16(sum))
}

// Write stores the record as path + ".hea" and its signal file in the same
// directory. Checksums and initial values in the header are recomputed.
func (r *Record) Write(path string) error {
	if len(r.Header.Signals) == 0 {
		return apperrors.NewValidationError("write record: no signals", nil)
	}
	file, format, _, err := sharedStorage(r.Header)
	if err != nil {
		return apperrors.NewValidationError("write record", err)
	}
	data, err := encodeSamples(format, r.digital)
	if err != nil {
		return apperrors.NewValidationError("write record", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewStorageError("create record directory", err).WithContext("path", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, file), data, 0o644); err != nil {
		return apperrors.NewStorageError("write signal file", err).WithContext("path", file)
	}
	if err := os.WriteFile(path+".hea", []byte(r.formatHeader()), 0o644); err != nil {
		return apperrors.NewStorageError("write header", err).WithContext("path", path+".hea")
	}
	return nil
}

func (r *Record) formatHeader() string {
	h := r.Header
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s %d\n", h.RecordName, h.NumSignals,
		strconv.FormatFloat(h.SamplingFrequency, 'f', -1, 64), h.NumSamples)
	for j, s := range h.Signals {
		initial := 0
		if h.NumSamples > 0 {
			initial = r.Digital(0, j)
		}
		units := s.Units
		if units == "" {
			units = DefaultUnits
		}
		fmt.Fprintf(&b, "%s %d %s(%d)/%s %d %d %d %d 0 %s\n",
			s.FileName, s.Format, strconv.FormatFloat(s.Gain, 'f', -1, 64), s.Baseline, units,
			s.ADCResolution, s.ADCZero, initial, r.Checksum(j), s.Description)
	}
	for _, c := range h.Comments {
		fmt.Fprintf(&b, "# %s\n", c)
	}
	return b.String()
}
