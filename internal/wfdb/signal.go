package wfdb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Storage formats
const (
	Format8bitOffset = 80
	Format16         = 16
	Format212        = 212
)

// Digital values reserved to mark an invalid sample, per format
const (
	invalid16  = -32768
	invalid80  = -128
	invalid212 = -2048
)

var (
	// ErrUnsupportedFormat marks a storage format this package cannot decode
	ErrUnsupportedFormat = errors.New("unsupported wfdb storage format")
	// ErrTruncated marks a signal file shorter than its header declares
	ErrTruncated = errors.New("signal file truncated")
)

// InvalidSample returns the digital sentinel used by format for missing
// samples
func InvalidSample(format int) (int, bool) {
	switch format {
	case Format16:
		return invalid16, true
	case Format8bitOffset:
		return invalid80, true
	case Format212:
		return invalid212, true
	default:
		return 0, false
	}
}

// bytesPerSamples returns how many bytes n samples occupy in format
func bytesPerSamples(format, n int) (int, error) {
	switch format {
	case Format16:
		return 2 * n, nil
	case Format8bitOffset:
		return n, nil
	case Format212:
		return (3*n + 1) / 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

// samplesIn returns how many whole samples nbytes hold in format
func samplesIn(format, nbytes int) int {
	switch format {
	case Format16:
		return nbytes / 2
	case Format212:
		return 2 * nbytes / 3
	default:
		return nbytes
	}
}

// decodeSamples decodes n interleaved digital samples from data
func decodeSamples(format int, data []byte, n int) ([]int, error) {
	need, err := bytesPerSamples(format, n)
	if err != nil {
		return nil, err
	}
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, need, len(data))
	}

	out := make([]int, n)
	switch format {
	case Format16:
		for i := range out {
			out[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
		}
	case Format8bitOffset:
		for i := range out {
			out[i] = int(data[i]) - 128
		}
	case Format212:
		for i := 0; i < n; i += 2 {
			b := data[3*i/2:]
			out[i] = signExtend12(int(b[0]) | int(b[1]&0x0F)<<8)
			if i+1 < n {
				out[i+1] = signExtend12(int(b[2]) | int(b[1]&0xF0)<<4)
			}
		}
	}
	return out, nil
}

// encodeSamples is the inverse of decodeSamples
func encodeSamples(format int, samples []int) ([]byte, error) {
	size, err := bytesPerSamples(format, len(samples))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	switch format {
	case Format16:
		for i, v := range samples {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
		}
	case Format8bitOffset:
		for i, v := range samples {
			out[i] = byte(v + 128)
		}
	case Format212:
		for i := 0; i < len(samples); i += 2 {
			b := out[3*i/2:]
			s0 := samples[i] & 0x0FFF
			b[0] = byte(s0)
			b[1] = byte(s0 >> 8)
			if i+1 < len(samples) {
				s1 := samples[i+1] & 0x0FFF
				b[1] |= byte(s1>>8) << 4
				b[2] = byte(s1)
			}
		}
	}
	return out, nil
}

func signExtend12(v int) int {
	if v&0x800 != 0 {
		return v - 0x1000
	}
	return v
}
