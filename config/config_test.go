package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
percentiles: [50, 95, 99.9]
schemas:
  - name: resolver-log
    fields:
      - {name: Resolver, kind: string, column: 0}
      - {name: Time, kind: duration, column: 1}
analyses:
  - name: clients
    sources:
      - name: client
        kind: jsonl
        path: logs/client
        schema: client
        exclude: ["fetch_logs.sh"]
        tags:
          - {field: Protocol, value: ODOH}
    derive:
      - result: network_time
        from: ClientUpstreamRequestTime
        to: ClientDownstreamResponseTime
        fromUnit: ns
        toUnit: ms
    postFilters:
      - {field: network_time, op: gt, value: "0"}
    value: network_time
    groupBy: [ProtocolType]
    thenBy: [Target]
    compare:
      - baseline: [DOH]
        candidate: [ODOH]
    plots:
      - {kind: cdf, file: clients.png, logX: true, truncate: 0.9}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadConfig_Valid(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "noop", *cfg.Logging.Driver)
	assert.Equal(t, "results", *cfg.Output.Dir)
	assert.True(t, *cfg.Output.Progress)
	assert.Equal(t, []float64{50, 95, 99.9}, cfg.Percentiles)

	require.Len(t, cfg.Schemas, 1)
	assert.Equal(t, "resolver-log", *cfg.Schemas[0].Name)
	assert.Equal(t, 1, *cfg.Schemas[0].Fields[1].Column)

	require.Len(t, cfg.Analyses, 1)
	a := cfg.Analyses[0]
	assert.Equal(t, "clients", *a.Name)
	assert.Equal(t, "jsonl", *a.Sources[0].Kind)
	assert.Equal(t, []string{"fetch_logs.sh"}, a.Sources[0].Exclude)
	assert.Equal(t, "ODOH", *a.Sources[0].Tags[0].Value)
	assert.Equal(t, "ns", *a.Derive[0].FromUnit)
	assert.Equal(t, []string{"Target"}, a.ThenBy)
	assert.Equal(t, []string{"ODOH"}, a.Compare[0].Candidate)
	assert.Equal(t, 0.9, *a.Plots[0].Truncate)
	assert.True(t, *a.Plots[0].LogX)
}

func TestReadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DNSLATENCY_OUTPUT_DIR", "/tmp/plots")
	cfg, err := ReadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plots", *cfg.Output.Dir)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "No analyses",
			content: "logging: {driver: stdout}\n",
		},
		{
			name: "Unknown logging driver",
			content: "logging: {driver: syslog}\n" +
				"analyses: [{name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}]}]\n",
		},
		{
			name: "InfluxDB driver without options",
			content: "logging: {driver: influxdb}\n" +
				"analyses: [{name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}]}]\n",
		},
		{
			name:    "Unknown source kind",
			content: "analyses: [{name: a, value: Time, sources: [{name: s, kind: parquet, path: p, schema: microbench}]}]\n",
		},
		{
			name:    "Cloud source without platforms",
			content: "analyses: [{name: a, value: Time, sources: [{name: s, kind: cloud, path: p, schema: target}]}]\n",
		},
		{
			name: "Unknown filter op",
			content: "analyses: [{name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}],\n" +
				"  preFilters: [{field: Time, op: between, value: '1'}]}]\n",
		},
		{
			name: "Percentile out of range",
			content: "percentiles: [50, 101]\n" +
				"analyses: [{name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}]}]\n",
		},
		{
			name: "Duplicate analysis",
			content: "analyses:\n" +
				"  - {name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}]}\n" +
				"  - {name: a, value: Time, sources: [{name: s, kind: csv, path: p, schema: microbench}]}\n",
		},
		{
			name: "Comparison key does not match groupBy",
			content: "analyses: [{name: a, value: Time, groupBy: [KEM, KDF], sources: [{name: s, kind: csv, path: p, schema: microbench}],\n" +
				"  compare: [{baseline: [X25519], candidate: [P256]}]}]\n",
		},
		{
			name: "Divisor and units",
			content: "analyses: [{name: a, value: t, sources: [{name: s, kind: csv, path: p, schema: microbench}],\n" +
				"  derive: [{result: t, to: Time, divisor: 1000, fromUnit: ns, toUnit: us}]}]\n",
		},
		{
			name: "Half a unit conversion",
			content: "analyses: [{name: a, value: t, sources: [{name: s, kind: csv, path: p, schema: microbench}],\n" +
				"  derive: [{result: t, to: Time, fromUnit: ns}]}]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
