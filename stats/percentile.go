package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptySample is returned instead of a sentinel value whenever a statistic
// is requested over zero data points.
var ErrEmptySample = errors.New("empty sample")

var ErrInvalidPercentile = errors.New("percentile must be within [0, 100]")

// DefaultPercentiles are printed for every cohort for manual sanity checks.
var DefaultPercentiles = []float64{50, 60, 70, 75, 80, 85, 90, 95, 99, 99.9}

func sortedCopy(sample []float64) []float64 {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	return sorted
}

func checkPercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("got p = %v: %w", p, ErrInvalidPercentile)
	}
	return nil
}

// percentileSorted interpolates linearly between the two order statistics
// nearest to rank (n-1)*p/100.
func percentileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	if h == lo {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Percentile returns the p-th percentile of sample using linear interpolation
// between order statistics. The sample is not modified and its order does not
// matter.
func Percentile(sample []float64, p float64) (float64, error) {
	if len(sample) == 0 {
		return 0, fmt.Errorf("Percentile(p = %v): %w", p, ErrEmptySample)
	}
	if err := checkPercentile(p); err != nil {
		return 0, fmt.Errorf("Percentile(): %w", err)
	}
	return percentileSorted(sortedCopy(sample), p), nil
}

// Table maps requested percentiles to their values for one sample.
type Table struct {
	percentiles []float64
	values      []float64
}

// NewTable computes every requested percentile of sample, sorting it once.
func NewTable(sample []float64, percentiles ...float64) (*Table, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("NewTable(): %w", ErrEmptySample)
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	sorted := sortedCopy(sample)

	t := &Table{
		percentiles: make([]float64, len(percentiles)),
		values:      make([]float64, len(percentiles)),
	}
	for i, p := range percentiles {
		if err := checkPercentile(p); err != nil {
			return nil, fmt.Errorf("NewTable(): %w", err)
		}
		t.percentiles[i] = p
		t.values[i] = percentileSorted(sorted, p)
	}
	return t, nil
}

func (t *Table) Percentiles() []float64 {
	out := make([]float64, len(t.percentiles))
	copy(out, t.percentiles)
	return out
}

func (t *Table) Values() []float64 {
	out := make([]float64, len(t.values))
	copy(out, t.values)
	return out
}

// Lookup returns the value computed for p. ok is false if p was not requested.
func (t *Table) Lookup(p float64) (value float64, ok bool) {
	for i, q := range t.percentiles {
		if q == p {
			return t.values[i], true
		}
	}
	return 0, false
}
