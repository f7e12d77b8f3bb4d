package dataprocessing

import (
	"fmt"
	"sort"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/ptbxl"
)

// Recommended PTB-XL folds: 1-8 train, 9 validation, 10 test
const (
	DefaultValidationFold = 9
	DefaultTestFold       = 10
)

// Split names
const (
	SplitTrain      = "train"
	SplitValidation = "validation"
	SplitTest       = "test"
)

// Split holds record indices per partition, in input order
type Split struct {
	Train      []int
	Validation []int
	Test       []int
}

// Partitions returns the split names with their indices in a fixed order
func (s Split) Partitions() []Partition {
	return []Partition{
		{Name: SplitTrain, Indices: s.Train},
		{Name: SplitValidation, Indices: s.Validation},
		{Name: SplitTest, Indices: s.Test},
	}
}

// Partition is one named part of a Split
type Partition struct {
	Name    string
	Indices []int
}

// SplitByFold partitions records by strat_fold. Records in validationFold go
// to Validation, records in testFold to Test and all others to Train.
func SplitByFold(records []ptbxl.Record, validationFold, testFold int) (Split, error) {
	if validationFold == testFold {
		return Split{}, apperrors.NewValidationError(
			fmt.Sprintf("validation and test fold must differ, both are %d", validationFold), nil)
	}
	split := Split{Train: []int{}, Validation: []int{}, Test: []int{}}
	for i, r := range records {
		switch r.StratFold {
		case validationFold:
			split.Validation = append(split.Validation, i)
		case testFold:
			split.Test = append(split.Test, i)
		default:
			split.Train = append(split.Train, i)
		}
	}
	return split, nil
}

// ClassCount is the number of records of one split carrying a superclass
type ClassCount struct {
	Split string
	Class string
	Count int
	// Total is the number of records in the split
	Total int
}

// Share returns Count / Total, or 0 for an empty split
func (c ClassCount) Share() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Count) / float64(c.Total)
}

// ClassDistribution counts diagnostic superclasses per split. A record with
// several superclasses counts once for each. Records without any superclass
// are counted under the class "" so every record is accounted for.
func ClassDistribution(split Split, labels []ptbxl.Annotation) []ClassCount {
	var out []ClassCount
	for _, p := range split.Partitions() {
		counts := make(map[string]int)
		for _, idx := range p.Indices {
			if idx < 0 || idx >= len(labels) {
				continue
			}
			if !labels[idx].Labeled() {
				counts[""]++
				continue
			}
			for _, class := range labels[idx].Superclasses {
				counts[class]++
			}
		}

		classes := make([]string, 0, len(counts))
		for c := range counts {
			classes = append(classes, c)
		}
		sort.Strings(classes)
		for _, c := range classes {
			out = append(out, ClassCount{Split: p.Name, Class: c, Count: counts[c], Total: len(p.Indices)})
		}
	}
	return out
}
