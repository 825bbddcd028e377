package derive

import (
	"errors"
	"testing"

	"github.com/kcz17/dnslatency/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timestamps(start, end int64) *record.Record {
	return record.New("test", 1, true).
		With("Start", record.IntValue(start)).
		With("End", record.IntValue(end))
}

func TestApply_EqualTimestampsYieldZero(t *testing.T) {
	rule := Rule{Result: "elapsed", From: "Start", To: "End", Divisor: 1}
	for _, ts := range []int64{0, 1, 1596233760123456789, -5} {
		rec, err := Apply(timestamps(ts, ts), rule)
		require.NoError(t, err)
		v, err := rec.Number("elapsed")
		require.NoError(t, err)
		assert.Equal(t, float64(0), v.Float(), "expected zero elapsed time for Start == End == %d", ts)
	}
}

func TestApply_NanosecondsToMilliseconds(t *testing.T) {
	rule := Rule{Result: "network_time", From: "Start", To: "End", Divisor: 1e6}

	// float64(1596233760123456789) and float64(1596233760125956789) round to
	// different neighbours; exact subtraction must yield 2.5ms.
	rec, err := Apply(timestamps(1596233760123456789, 1596233760125956789), rule)
	require.NoError(t, err)
	v, err := rec.Number("network_time")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.Float())
}

func TestApply_NegativeDurationIsNotAnError(t *testing.T) {
	rec, err := Apply(timestamps(100, 40), Rule{Result: "d", From: "Start", To: "End"})
	require.NoError(t, err)
	v, err := rec.Number("d")
	require.NoError(t, err)
	assert.Equal(t, float64(-60), v.Float())
}

func TestApply_MissingField(t *testing.T) {
	rec := record.New("test", 3, true).With("Start", record.IntValue(1))

	_, err := Apply(rec, Rule{Result: "d", From: "Start", To: "End"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, record.ErrMissingField))

	var missing *record.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "End", missing.Field)

	_, err = Apply(rec, Rule{Result: "d", From: "Begin", To: "Start"})
	assert.True(t, errors.Is(err, record.ErrMissingField))
}

func TestApply_ScalingRule(t *testing.T) {
	rec := record.New("test", 1, true).With("Time", record.IntValue(2500))
	derived, err := Apply(rec, Rule{Result: "time_us", To: "Time", Divisor: 1000})
	require.NoError(t, err)
	v, err := derived.Number("time_us")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.Float())
}

func TestApply_UnitTagSelectsDivisor(t *testing.T) {
	rule := Rule{
		Result:    "question_decryption",
		From:      "Start",
		To:        "End",
		UnitField: "Platform",
		Divisors:  map[string]float64{"gcp": 1e6, "rust": 1},
	}
	tests := []struct {
		name     string
		platform string
		want     float64
	}{
		{name: "Nanosecond platform", platform: "gcp", want: 3},
		{name: "Millisecond platform", platform: "rust", want: 3e6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := timestamps(1e6, 4e6).WithTags([]record.Tag{{Field: "Platform", Value: tt.platform}})
			derived, err := Apply(rec, rule)
			require.NoError(t, err)
			v, err := derived.Number("question_decryption")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Float())
		})
	}

	unknown := timestamps(0, 1).WithTags([]record.Tag{{Field: "Platform", Value: "aws"}})
	_, err := Apply(unknown, rule)
	assert.True(t, errors.Is(err, ErrUnknownUnit), "expected ErrUnknownUnit; got %v", err)

	rule.DefaultDivisor = 1000
	derived, err := Apply(unknown, rule)
	require.NoError(t, err)
	v, _ := derived.Number("question_decryption")
	assert.Equal(t, 0.001, v.Float())

	_, err = Apply(timestamps(0, 1), rule)
	assert.True(t, errors.Is(err, record.ErrMissingField), "expected missing unit tag to be ErrMissingField; got %v", err)
}

func TestDeriver_ApplyAllChainsRules(t *testing.T) {
	deriver, err := NewDeriver(
		Rule{Result: "elapsed_ns", From: "Start", To: "End"},
		Rule{Result: "elapsed_ms", To: "elapsed_ns", Divisor: 1e6},
	)
	require.NoError(t, err)

	out, err := deriver.ApplyAll([]*record.Record{timestamps(0, 2e6), timestamps(5, 5)})
	require.NoError(t, err)
	require.Len(t, out, 2)

	first, _ := out[0].Number("elapsed_ms")
	second, _ := out[1].Number("elapsed_ms")
	assert.Equal(t, float64(2), first.Float())
	assert.Equal(t, float64(0), second.Float())
}

func TestDeriver_ApplyAllAbortsOnMissingField(t *testing.T) {
	deriver, err := NewDeriver(Rule{Result: "d", From: "Start", To: "Missing"})
	require.NoError(t, err)
	_, err = deriver.ApplyAll([]*record.Record{timestamps(0, 1)})
	assert.True(t, errors.Is(err, record.ErrMissingField))
}

func TestNewDeriver_RejectsInvalidRules(t *testing.T) {
	_, err := NewDeriver(Rule{Result: "d"})
	assert.Error(t, err)
	_, err = NewDeriver(Rule{Result: "d", To: "End", Divisors: map[string]float64{"gcp": 1e6}})
	assert.Error(t, err)
	_, err = NewDeriver(Rule{Result: "d", To: "End", UnitField: "Platform", Divisors: map[string]float64{"gcp": 0}})
	assert.Error(t, err)
}

func TestUnitDivisor(t *testing.T) {
	d, err := UnitDivisor("ns", "ms")
	require.NoError(t, err)
	assert.Equal(t, 1e6, d)

	d, err = UnitDivisor("ns", "us")
	require.NoError(t, err)
	assert.Equal(t, 1e3, d)

	_, err = UnitDivisor("ns", "fortnight")
	assert.True(t, errors.Is(err, ErrUnknownUnit))
}
