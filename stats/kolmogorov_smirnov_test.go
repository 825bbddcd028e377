package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKolmogorovSmirnovTest_SameDistributionNotRejected(t *testing.T) {
	result, err := KolmogorovSmirnovTest(latencies(2000, 1), latencies(2000, 2), C99d9)
	require.NoError(t, err)
	assert.Falsef(t, result.Rejected, "expected samples of one distribution to pass; statistic %.3f > critical %.3f", result.Statistic, result.CriticalValue)
}

func TestKolmogorovSmirnovTest_ShiftedDistributionRejected(t *testing.T) {
	shifted := latencies(2000, 2)
	for i := range shifted {
		shifted[i] += 40
	}
	result, err := KolmogorovSmirnovTest(latencies(2000, 1), shifted, C95)
	require.NoError(t, err)
	assert.True(t, result.Rejected)
}

func TestKolmogorovSmirnovTest_Errors(t *testing.T) {
	_, err := KolmogorovSmirnovTest(nil, []float64{1}, C95)
	assert.True(t, errors.Is(err, ErrEmptySample))
	_, err = KolmogorovSmirnovTest([]float64{1}, []float64{1}, Confidence(99))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Count)
	assert.Equal(t, float64(2), summary.Min)
	assert.Equal(t, float64(9), summary.Max)
	assert.Equal(t, float64(5), summary.Mean)
	assert.InDelta(t, 2, summary.StdDev, 1e-9)

	_, err = Summarize(nil)
	assert.True(t, errors.Is(err, ErrEmptySample))
}
