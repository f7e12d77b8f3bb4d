package dataprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Signals is a records x samples x leads tensor stored row-major in Data
type Signals struct {
	Records int
	Samples int
	Leads   int
	Data    []float64
}

// NewSignals allocates a zeroed tensor
func NewSignals(records, samples, leads int) *Signals {
	return &Signals{
		Records: records,
		Samples: samples,
		Leads:   leads,
		Data:    make([]float64, records*samples*leads),
	}
}

// Shape returns the dimensions as records, samples, leads
func (s *Signals) Shape() [3]int {
	return [3]int{s.Records, s.Samples, s.Leads}
}

// At returns sample i of lead j in record r
func (s *Signals) At(r, i, j int) float64 {
	return s.Data[s.offset(r)+i*s.Leads+j]
}

// Record returns a samples x leads view of record r. Writes through the view
// change the tensor.
func (s *Signals) Record(r int) *mat.Dense {
	if r < 0 || r >= s.Records {
		panic(fmt.Sprintf("dataprocessing: record index %d out of range [0,%d)", r, s.Records))
	}
	if s.Samples == 0 || s.Leads == 0 {
		return &mat.Dense{}
	}
	off := s.offset(r)
	return mat.NewDense(s.Samples, s.Leads, s.Data[off:off+s.Samples*s.Leads])
}

// slot returns the backing slice of record r
func (s *Signals) slot(r int) []float64 {
	off := s.offset(r)
	return s.Data[off : off+s.Samples*s.Leads]
}

// Subset copies the given records, in order, into a new tensor
func (s *Signals) Subset(indices []int) *Signals {
	out := NewSignals(len(indices), s.Samples, s.Leads)
	for k, r := range indices {
		copy(out.slot(k), s.slot(r))
	}
	return out
}

func (s *Signals) offset(r int) int {
	return r * s.Samples * s.Leads
}
