package compare

import (
	"errors"
	"fmt"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/stats"
)

// ErrZeroBaseline is returned when a baseline percentile is zero, which would
// make the relative change infinite.
var ErrZeroBaseline = errors.New("baseline percentile is zero")

// improvementThreshold is the share of the baseline p95 a candidate must
// shave off to count as an improvement.
const improvementThreshold = 0.05

type Cohort struct {
	Label  string
	Sample *aggregate.Sample
}

// Change is the relative difference of one percentile, in percent of the
// baseline value.
type Change struct {
	Percentile float64
	Baseline   float64
	Candidate  float64
	Percent    float64
}

type Result struct {
	Baseline  string
	Candidate string
	Changes   []Change
	// KS is the two-sample test at 95% confidence. Rejected means the cohorts
	// are unlikely to share a latency distribution.
	KS *stats.KolmogorovSmirnov
	// Improves is true if the candidate p95 is at least 5% below the
	// baseline p95.
	Improves bool
}

// Compare computes the percent change of the candidate against the baseline
// for every requested percentile, defaulting to stats.DefaultPercentiles.
func Compare(baseline, candidate Cohort, percentiles ...float64) (*Result, error) {
	if len(percentiles) == 0 {
		percentiles = stats.DefaultPercentiles
	}
	b, c := baseline.Sample.Values(), candidate.Sample.Values()

	baseTable, err := stats.NewTable(b, percentiles...)
	if err != nil {
		return nil, fmt.Errorf("Compare() baseline %s: %w", baseline.Label, err)
	}
	candTable, err := stats.NewTable(c, percentiles...)
	if err != nil {
		return nil, fmt.Errorf("Compare() candidate %s: %w", candidate.Label, err)
	}

	result := &Result{Baseline: baseline.Label, Candidate: candidate.Label}
	baseValues, candValues := baseTable.Values(), candTable.Values()
	for i, p := range baseTable.Percentiles() {
		if baseValues[i] == 0 {
			return nil, fmt.Errorf("Compare() %s vs %s at p%v: %w", baseline.Label, candidate.Label, p, ErrZeroBaseline)
		}
		result.Changes = append(result.Changes, Change{
			Percentile: p,
			Baseline:   baseValues[i],
			Candidate:  candValues[i],
			Percent:    (candValues[i] - baseValues[i]) / baseValues[i] * 100,
		})
	}

	if result.KS, err = stats.KolmogorovSmirnovTest(b, c, stats.C95); err != nil {
		return nil, fmt.Errorf("Compare() %s vs %s: %w", baseline.Label, candidate.Label, err)
	}

	baseP95, err := stats.Percentile(b, 95)
	if err != nil {
		return nil, err
	}
	candP95, err := stats.Percentile(c, 95)
	if err != nil {
		return nil, err
	}
	result.Improves = candP95 <= baseP95-baseP95*improvementThreshold

	return result, nil
}

// Pair names two groups to compare, e.g. Do53 against ODOH.
type Pair struct {
	Baseline  aggregate.Key
	Candidate aggregate.Key
}

// Matrix compares every pair of groups in order. A pair naming a group that
// was never populated fails with aggregate.ErrUnknownGroup.
func Matrix(groups *aggregate.Groups, pairs []Pair, percentiles ...float64) ([]*Result, error) {
	results := make([]*Result, 0, len(pairs))
	for _, pair := range pairs {
		baseline, err := groups.Lookup(pair.Baseline)
		if err != nil {
			return nil, fmt.Errorf("Matrix() baseline: %w", err)
		}
		candidate, err := groups.Lookup(pair.Candidate)
		if err != nil {
			return nil, fmt.Errorf("Matrix() candidate: %w", err)
		}
		result, err := Compare(
			Cohort{Label: pair.Baseline.String(), Sample: baseline},
			Cohort{Label: pair.Candidate.String(), Sample: candidate},
			percentiles...,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
