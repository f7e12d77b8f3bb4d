package exporter

import (
	"math"
	"strconv"
)

// FormatFloat formats a value with a fixed number of decimals. NaN is
// written as an empty cell.
func FormatFloat(f float64, decimals int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// FormatInt formats an integer value for CSV output
func FormatInt(i int) string {
	return strconv.Itoa(i)
}
