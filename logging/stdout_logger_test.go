package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutLogger_LogPercentiles(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdoutLogger(&buf, false)

	table, err := stats.NewTable([]float64{15, 20, 35, 40, 50}, 50, 95)
	require.NoError(t, err)
	logger.LogPercentiles("dnscrypt", "DNSCrypt", 5, table)

	out := buf.String()
	assert.Contains(t, out, "[dnscrypt] DNSCrypt")
	assert.Contains(t, out, "35.000")
	assert.Contains(t, out, "48.000")
}

func TestStdoutLogger_MalformedEntriesOnlyWhenVerbose(t *testing.T) {
	var quiet, verbose bytes.Buffer
	NewStdoutLogger(&quiet, false).LogMalformedEntry("client-a", errors.New("bad line"))
	NewStdoutLogger(&verbose, true).LogMalformedEntry("client-a", errors.New("bad line"))

	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), "skipping malformed entry")
	assert.Contains(t, verbose.String(), "bad line")
}

func TestStdoutLogger_LogComparison(t *testing.T) {
	var buf bytes.Buffer
	result, err := compare.Compare(
		compare.Cohort{Label: "DOH", Sample: aggregate.NewSample(10, 20, 30, 40)},
		compare.Cohort{Label: "ODOH", Sample: aggregate.NewSample(20, 40, 60, 80)},
		50,
	)
	require.NoError(t, err)

	NewStdoutLogger(&buf, false).LogComparison("protocols", result)
	assert.Contains(t, buf.String(), "[protocols] DOH vs ODOH")
	assert.Contains(t, buf.String(), "+100.00%")
}

func TestNoopLogger(t *testing.T) {
	var logger Logger = NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.LogSourceLoaded("a", 1, 1, 0)
		logger.LogArtifact("a", "out.png")
		logger.Close()
	})
}
