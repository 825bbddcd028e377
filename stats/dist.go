package stats

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// TruncatedNormal samples latencies from a normal distribution truncated to
// [lo, hi]. It backs the synthetic log generator, so a fixed seed must always
// produce the same sequence.
type TruncatedNormal struct {
	norm distuv.Normal
	// uniform samples within [CDF(lo), CDF(hi)] for inverse transform
	// sampling.
	uniform distuv.Uniform
}

func NewTruncatedNormal(lo, hi, mean, stddev float64, seed uint64) *TruncatedNormal {
	// Use an inverse transform method to sample from the distribution.
	// Reference: https://www.r-bloggers.com/2020/08/generating-data-from-a-truncated-distribution/
	norm := distuv.Normal{
		Mu:    mean,
		Sigma: stddev,
		Src:   rand.NewSource(seed),
	}

	return &TruncatedNormal{
		norm: norm,
		uniform: distuv.Uniform{
			Min: norm.CDF(lo),
			Max: norm.CDF(hi),
			Src: rand.NewSource(seed),
		},
	}
}

func (d *TruncatedNormal) Rand() float64 {
	return d.norm.Quantile(d.uniform.Rand())
}

// Sample draws n values.
func (d *TruncatedNormal) Sample(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = d.Rand()
	}
	return samples
}
