package ptbxl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSCPCodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]float64
	}{
		{"typical", "{'NORM': 100.0, 'LVOLT': 0.0, 'SR': 0.0}", map[string]float64{"NORM": 100, "LVOLT": 0, "SR": 0}},
		{"empty dict", "{}", map[string]float64{}},
		{"empty cell", "", map[string]float64{}},
		{"double quotes", `{"IMI": 35.0}`, map[string]float64{"IMI": 35}},
		{"integer likelihood", "{'AFIB': 100}", map[string]float64{"AFIB": 100}},
		{"trailing comma", "{'IMI': 15.0, 'LNGQT': 100.0, 'SR': 0.0,}", map[string]float64{"IMI": 15, "LNGQT": 100, "SR": 0}},
		{"surrounding whitespace", "  {'NORM': 80.0}\n", map[string]float64{"NORM": 80}},
		{"code with digits", "{'1AVB': 100.0}", map[string]float64{"1AVB": 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSCPCodes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSCPCodes_Invalid(t *testing.T) {
	inputs := []string{
		"NORM: 100",
		"['NORM', 100.0]",
		"{'NORM': 100.0",
		"{'NORM: 100.0}",
		"{'NORM': high}",
		"{'NORM': 1.0.0}",
		"{'NORM': 100.0} extra",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSCPCodes(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSCPCodes))
		})
	}
}

func TestFormatSCPCodes(t *testing.T) {
	codes := map[string]float64{"SR": 0, "NORM": 100, "LVOLT": 0, "IMI": 15.5}
	s := FormatSCPCodes(codes)
	assert.Equal(t, "{'NORM': 100.0, 'IMI': 15.5, 'LVOLT': 0.0, 'SR': 0.0}", s)

	back, err := ParseSCPCodes(s)
	require.NoError(t, err)
	assert.Equal(t, codes, back)
}
