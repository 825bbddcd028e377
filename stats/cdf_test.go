package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCDF(t *testing.T) {
	curve, err := CDF([]float64{30, 10, 20, 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 20, 30}, curve.X)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, curve.Y)
	assert.Equal(t, 4, curve.Len())

	x, y := curve.XY(2)
	assert.Equal(t, float64(20), x)
	assert.Equal(t, 0.75, y)
}

func TestCDF_YIsNonDecreasingAndEndsAtOne(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		curve, err := CDF(latencies(int(seed)*13, seed))
		require.NoError(t, err)
		require.Equal(t, len(curve.X), len(curve.Y))
		for i := 1; i < len(curve.Y); i++ {
			assert.GreaterOrEqual(t, curve.Y[i], curve.Y[i-1])
			assert.GreaterOrEqual(t, curve.X[i], curve.X[i-1])
		}
		assert.Equal(t, float64(1), curve.Y[len(curve.Y)-1])
	}
}

func TestCDF_OrderIndependent(t *testing.T) {
	sample := latencies(200, 3)
	want, err := CDF(sample)
	require.NoError(t, err)
	got, err := CDF(permuted(sample, 11))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCDF_EmptySample(t *testing.T) {
	_, err := CDF(nil)
	assert.True(t, errors.Is(err, ErrEmptySample))
}

func TestCurve_Split(t *testing.T) {
	curve, err := CDF([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)

	head, tail := curve.Split(0.9)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, head.X)
	assert.Equal(t, []float64{9, 10}, tail.X)
	assert.Equal(t, 0.9, tail.Y[0], "expected the tail to start at the last point within q")

	head, tail = curve.Split(0.55)
	assert.Equal(t, []float64{1, 2, 3, 4}, head.X)
	assert.Equal(t, []float64{5, 6, 7, 8, 9, 10}, tail.X)

	head, tail = curve.Split(1)
	assert.Equal(t, 9, head.Len())
	assert.Equal(t, []float64{10}, tail.X)

	head, tail = curve.Split(0)
	assert.Equal(t, 0, head.Len())
	assert.Equal(t, 10, tail.Len())
}
