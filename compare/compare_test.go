package compare

import (
	"errors"
	"testing"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/record"
	"github.com/kcz17/dnslatency/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(n int, scale float64) *aggregate.Sample {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i+1) * scale
	}
	return aggregate.NewSample(values...)
}

func TestCompare_HalvedLatencyImproves(t *testing.T) {
	result, err := Compare(
		Cohort{Label: "DOH", Sample: linear(100, 1)},
		Cohort{Label: "ODOH", Sample: linear(100, 0.5)},
		50, 95, 99,
	)
	require.NoError(t, err)

	assert.Equal(t, "DOH", result.Baseline)
	assert.Equal(t, "ODOH", result.Candidate)
	require.Len(t, result.Changes, 3)
	for _, change := range result.Changes {
		assert.InDelta(t, -50, change.Percent, 1e-9, "expected -50%% change at p%v", change.Percentile)
		assert.InDelta(t, change.Baseline/2, change.Candidate, 1e-9)
	}
	assert.True(t, result.Improves)
	assert.True(t, result.KS.Rejected, "expected KS-test to reject for disjoint halves; got %+v", result.KS)
}

func TestCompare_IdenticalCohorts(t *testing.T) {
	result, err := Compare(
		Cohort{Label: "a", Sample: linear(50, 2)},
		Cohort{Label: "b", Sample: linear(50, 2)},
	)
	require.NoError(t, err)

	require.Len(t, result.Changes, len(stats.DefaultPercentiles))
	for _, change := range result.Changes {
		assert.Equal(t, float64(0), change.Percent)
	}
	assert.False(t, result.Improves)
	assert.False(t, result.KS.Rejected)
}

func TestCompare_SmallImprovementIsNotEnough(t *testing.T) {
	result, err := Compare(
		Cohort{Label: "control", Sample: linear(100, 1)},
		Cohort{Label: "candidate", Sample: linear(100, 0.98)},
		95,
	)
	require.NoError(t, err)
	assert.False(t, result.Improves, "expected a 2%% decrease not to count as an improvement")
}

func TestCompare_ZeroBaseline(t *testing.T) {
	_, err := Compare(
		Cohort{Label: "zero", Sample: aggregate.NewSample(0, 0, 0)},
		Cohort{Label: "some", Sample: aggregate.NewSample(1, 2, 3)},
		50,
	)
	assert.True(t, errors.Is(err, ErrZeroBaseline), "expected ErrZeroBaseline; got %v", err)
}

func TestCompare_EmptyCohort(t *testing.T) {
	_, err := Compare(
		Cohort{Label: "empty", Sample: aggregate.NewSample()},
		Cohort{Label: "some", Sample: aggregate.NewSample(1, 2, 3)},
	)
	assert.True(t, errors.Is(err, stats.ErrEmptySample))
}

func TestMatrix(t *testing.T) {
	var records []*record.Record
	for i := 1; i <= 40; i++ {
		records = append(records,
			record.New("", i, true).With("Protocol", record.StringValue("Do53")).With("t", record.FloatValue(float64(i))),
			record.New("", i, true).With("Protocol", record.StringValue("ODOH")).With("t", record.FloatValue(float64(i)*1.5)),
		)
	}
	groups, err := aggregate.Group(records, aggregate.ByFields("Protocol"), "t")
	require.NoError(t, err)

	results, err := Matrix(groups, []Pair{
		{Baseline: aggregate.NewKey("Do53"), Candidate: aggregate.NewKey("ODOH")},
		{Baseline: aggregate.NewKey("ODOH"), Candidate: aggregate.NewKey("Do53")},
	}, 50)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 50, results[0].Changes[0].Percent, 1e-9)
	assert.True(t, results[1].Improves)

	_, err = Matrix(groups, []Pair{{Baseline: aggregate.NewKey("Do53"), Candidate: aggregate.NewKey("DOHOT")}})
	assert.True(t, errors.Is(err, aggregate.ErrUnknownGroup))
}
