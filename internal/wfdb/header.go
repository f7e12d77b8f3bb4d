package wfdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "ptbxl/internal/errors"
)

// Defaults applied when a header omits a field
const (
	DefaultSamplingFrequency = 250.0
	DefaultGain              = 200.0
	DefaultUnits             = "mV"
)

var (
	// ErrInvalidHeader marks a header that does not follow the WFDB grammar
	ErrInvalidHeader = errors.New("invalid wfdb header")
	// ErrMultiSegment marks a multi-segment record, which is not supported
	ErrMultiSegment = errors.New("multi-segment records are not supported")
)

// Header is a parsed .hea file
type Header struct {
	RecordName        string
	NumSignals        int
	SamplingFrequency float64
	// NumSamples is the number of samples per signal; 0 when the header does
	// not state it.
	NumSamples int
	Signals    []SignalSpec
	Comments   []string
}

// SignalSpec describes one signal line of a header
type SignalSpec struct {
	FileName        string
	Format          int
	SamplesPerFrame int
	Skew            int
	ByteOffset      int64
	Gain            float64
	Baseline        int
	Units           string
	ADCResolution   int
	ADCZero         int
	InitialValue    int
	Checksum        int
	HasChecksum     bool
	BlockSize       int
	Description     string
}

// Duration returns the length of the record in seconds
func (h Header) Duration() float64 {
	if h.SamplingFrequency == 0 {
		return 0
	}
	return float64(h.NumSamples) / h.SamplingFrequency
}

// ParseHeader parses a WFDB header from r
func ParseHeader(r io.Reader) (Header, error) {
	var h Header
	scanner := bufio.NewScanner(r)
	lineNo := 0
	recordLineSeen := false

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			h.Comments = append(h.Comments, strings.TrimSpace(strings.TrimPrefix(line, "#")))
			continue
		}

		if !recordLineSeen {
			if err := parseRecordLine(line, &h); err != nil {
				return Header{}, headerError(lineNo, err)
			}
			recordLineSeen = true
			continue
		}

		if len(h.Signals) == h.NumSignals {
			// Non-comment lines after the signal specs are ignored.
			continue
		}
		spec, err := parseSignalLine(line)
		if err != nil {
			return Header{}, headerError(lineNo, err)
		}
		h.Signals = append(h.Signals, spec)
	}
	if err := scanner.Err(); err != nil {
		return Header{}, apperrors.NewStorageError("read header", err)
	}

	if !recordLineSeen {
		return Header{}, headerError(lineNo, errors.New("missing record line"))
	}
	if len(h.Signals) != h.NumSignals {
		return Header{}, headerError(lineNo, fmt.Errorf("record line declares %d signals, found %d signal lines", h.NumSignals, len(h.Signals)))
	}
	return h, nil
}

func headerError(lineNo int, err error) error {
	return apperrors.NewParsingError("parse header", fmt.Errorf("%w: line %d: %w", ErrInvalidHeader, lineNo, err))
}

// parseRecordLine parses "name[/nseg] nsig [fs[/cfreq[(base)]] [nsamp [time [date]]]]"
func parseRecordLine(line string, h *Header) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("record line needs at least name and signal count, got %q", line)
	}

	name := fields[0]
	if strings.Contains(name, "/") {
		return ErrMultiSegment
	}
	h.RecordName = name

	nsig, err := strconv.Atoi(fields[1])
	if err != nil || nsig < 0 {
		return fmt.Errorf("invalid signal count %q", fields[1])
	}
	h.NumSignals = nsig

	h.SamplingFrequency = DefaultSamplingFrequency
	if len(fields) > 2 {
		fsField := fields[2]
		if i := strings.IndexAny(fsField, "/("); i >= 0 {
			fsField = fsField[:i]
		}
		fs, err := strconv.ParseFloat(fsField, 64)
		if err != nil || fs <= 0 {
			return fmt.Errorf("invalid sampling frequency %q", fields[2])
		}
		h.SamplingFrequency = fs
	}

	if len(fields) > 3 {
		nsamp, err := strconv.Atoi(fields[3])
		if err != nil || nsamp < 0 {
			return fmt.Errorf("invalid sample count %q", fields[3])
		}
		h.NumSamples = nsamp
	}
	return nil
}

// parseSignalLine parses
// "file fmt[xspf][:skew][+offset] [gain[(baseline)][/units] [adcres [adczero [initval [checksum [blocksize [description]]]]]]]"
func parseSignalLine(line string) (SignalSpec, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return SignalSpec{}, fmt.Errorf("signal line needs at least file name and format, got %q", line)
	}

	spec := SignalSpec{
		FileName:        fields[0],
		SamplesPerFrame: 1,
		Gain:            DefaultGain,
		Units:           DefaultUnits,
	}
	if err := parseFormatField(fields[1], &spec); err != nil {
		return SignalSpec{}, err
	}

	baselineSet := false
	if len(fields) > 2 {
		set, err := parseGainField(fields[2], &spec)
		if err != nil {
			return SignalSpec{}, err
		}
		baselineSet = set
	}

	ints := []*int{&spec.ADCResolution, &spec.ADCZero, &spec.InitialValue, &spec.Checksum, &spec.BlockSize}
	names := []string{"adc resolution", "adc zero", "initial value", "checksum", "block size"}
	for i, target := range ints {
		idx := 3 + i
		if idx >= len(fields) {
			break
		}
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return SignalSpec{}, fmt.Errorf("invalid %s %q", names[i], fields[idx])
		}
		*target = v
		if target == &spec.Checksum {
			spec.HasChecksum = true
		}
	}
	if len(fields) > 8 {
		spec.Description = strings.Join(fields[8:], " ")
	}

	if !baselineSet {
		spec.Baseline = spec.ADCZero
	}
	return spec, nil
}

func parseFormatField(field string, spec *SignalSpec) error {
	rest := field
	if i := strings.Index(rest, "+"); i >= 0 {
		off, err := strconv.ParseInt(rest[i+1:], 10, 64)
		if err != nil || off < 0 {
			return fmt.Errorf("invalid byte offset in %q", field)
		}
		spec.ByteOffset = off
		rest = rest[:i]
	}
	if i := strings.Index(rest, ":"); i >= 0 {
		skew, err := strconv.Atoi(rest[i+1:])
		if err != nil {
			return fmt.Errorf("invalid skew in %q", field)
		}
		spec.Skew = skew
		rest = rest[:i]
	}
	if i := strings.Index(rest, "x"); i >= 0 {
		spf, err := strconv.Atoi(rest[i+1:])
		if err != nil || spf < 1 {
			return fmt.Errorf("invalid samples per frame in %q", field)
		}
		spec.SamplesPerFrame = spf
		rest = rest[:i]
	}
	format, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("invalid format %q", field)
	}
	spec.Format = format
	return nil
}

// parseGainField parses "gain[(baseline)][/units]" and reports whether a
// baseline was given
func parseGainField(field string, spec *SignalSpec) (bool, error) {
	rest := field
	if i := strings.Index(rest, "/"); i >= 0 {
		spec.Units = rest[i+1:]
		rest = rest[:i]
	}
	baselineSet := false
	if i := strings.Index(rest, "("); i >= 0 {
		j := strings.Index(rest, ")")
		if j < i {
			return false, fmt.Errorf("unterminated baseline in %q", field)
		}
		baseline, err := strconv.Atoi(rest[i+1 : j])
		if err != nil {
			return false, fmt.Errorf("invalid baseline in %q", field)
		}
		spec.Baseline = baseline
		baselineSet = true
		rest = rest[:i]
	}
	gain, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return false, fmt.Errorf("invalid gain in %q", field)
	}
	if gain == 0 {
		gain = DefaultGain
	}
	spec.Gain = gain
	return baselineSet, nil
}
