package ptbxl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleAge(t *testing.T) {
	tests := []struct {
		name string
		age  float64
		want float64
	}{
		{"young", 50, 50},
		{"zero", 0, 0},
		{"boundary", 89, 89},
		{"just above boundary", 89.5, -210.5},
		{"anonymized", 90, -210},
		{"stored value for very old", 300, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleAge(tt.age))
		})
	}
}

func TestScaleAge_NaN(t *testing.T) {
	assert.True(t, math.IsNaN(ScaleAge(math.NaN())))
}

func TestScaleAges_ReturnsCopies(t *testing.T) {
	in := []Record{
		{ECGID: 1, Age: 56, SCPCodes: map[string]float64{"NORM": 100}},
		{ECGID: 2, Age: 95, SCPCodes: map[string]float64{"IMI": 80}},
	}

	out := ScaleAges(in)

	assert.Equal(t, 56.0, out[0].Age)
	assert.Equal(t, -205.0, out[1].Age)
	assert.Equal(t, 95.0, in[1].Age, "input must not change")

	out[0].SCPCodes["NORM"] = 0
	assert.Equal(t, 100.0, in[0].SCPCodes["NORM"])
}
