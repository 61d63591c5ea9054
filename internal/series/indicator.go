package series

import "math"

// IndicatorSeries is a value-per-bar array aligned to a price series by
// index. Entries before FirstValid are undefined (stored as NaN, never
// zero-filled) because the indicator has not seen enough history yet.
type IndicatorSeries struct {
	Values     []float64
	FirstValid int
}

// NewIndicatorSeries allocates a series of n values with the leading
// firstValid entries marked undefined.
func NewIndicatorSeries(n, firstValid int) IndicatorSeries {
	values := make([]float64, n)
	for i := 0; i < firstValid && i < n; i++ {
		values[i] = math.NaN()
	}
	if firstValid > n {
		firstValid = n
	}
	return IndicatorSeries{Values: values, FirstValid: firstValid}
}

// Len returns the number of entries, defined or not.
func (is IndicatorSeries) Len() int {
	return len(is.Values)
}

// At returns the value at bar i and whether it is defined.
func (is IndicatorSeries) At(i int) (float64, bool) {
	if i < 0 || i >= len(is.Values) || i < is.FirstValid {
		return 0, false
	}
	v := is.Values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Last returns the most recent defined value.
func (is IndicatorSeries) Last() (float64, bool) {
	return is.At(len(is.Values) - 1)
}

// DefinedCount returns how many bars carry a defined value.
func (is IndicatorSeries) DefinedCount() int {
	n := 0
	for i := range is.Values {
		if _, ok := is.At(i); ok {
			n++
		}
	}
	return n
}
