package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledSignals() *Signals {
	s := NewSignals(3, 4, 2)
	for i := range s.Data {
		s.Data[i] = float64(i)
	}
	return s
}

func TestSignals_Record(t *testing.T) {
	s := filledSignals()
	assert.Equal(t, [3]int{3, 4, 2}, s.Shape())

	m := s.Record(1)
	r, c := m.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 2, c)
	assert.Equal(t, 8.0, m.At(0, 0))
	assert.Equal(t, 15.0, m.At(3, 1))
	assert.Equal(t, s.At(1, 3, 1), m.At(3, 1))

	// the view shares the tensor's storage
	m.Set(0, 0, -1)
	assert.Equal(t, -1.0, s.At(1, 0, 0))
}

func TestSignals_RecordOutOfRange(t *testing.T) {
	s := filledSignals()
	assert.Panics(t, func() { s.Record(3) })
	assert.Panics(t, func() { s.Record(-1) })
}

func TestSignals_Subset(t *testing.T) {
	s := filledSignals()

	sub := s.Subset([]int{2, 0})
	assert.Equal(t, [3]int{2, 4, 2}, sub.Shape())
	assert.Equal(t, s.At(2, 1, 1), sub.At(0, 1, 1))
	assert.Equal(t, s.At(0, 3, 0), sub.At(1, 3, 0))

	sub.Data[0] = 100
	assert.NotEqual(t, 100.0, s.Data[16], "subset is a copy")
}
