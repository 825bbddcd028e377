package stats

import (
	"fmt"
	"github.com/montanaflynn/stats"
)

// Summary holds descriptive statistics printed next to percentile tables.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

func Summarize(sample []float64) (*Summary, error) {
	// The stats package requires input arrays to be non-empty.
	if len(sample) == 0 {
		return nil, fmt.Errorf("Summarize(): %w", ErrEmptySample)
	}

	data := stats.Float64Data(sample)
	min, err := data.Min()
	if err != nil {
		return nil, fmt.Errorf("unexpected err in Summarize() while calculating min: %w", err)
	}
	max, err := data.Max()
	if err != nil {
		return nil, fmt.Errorf("unexpected err in Summarize() while calculating max: %w", err)
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, fmt.Errorf("unexpected err in Summarize() while calculating mean: %w", err)
	}
	stddev, err := data.StandardDeviation()
	if err != nil {
		return nil, fmt.Errorf("unexpected err in Summarize() while calculating stddev: %w", err)
	}

	return &Summary{
		Count:  len(sample),
		Min:    min,
		Max:    max,
		Mean:   mean,
		StdDev: stddev,
	}, nil
}
