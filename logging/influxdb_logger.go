package logging

import (
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/stats"
)

// influxDBLogger logs run results to an external InfluxDB instance so they
// can be charted next to earlier runs.
type influxDBLogger struct {
	client      influxdb2.Client
	asyncWriter api.WriteAPI
	run         string
}

// NewInfluxDBLogger tags every point with run, so points of several runs can
// share a bucket.
func NewInfluxDBLogger(baseURL, authToken, org, bucket, run string) *influxDBLogger {
	options := influxdb2.DefaultOptions()
	options.WriteOptions().SetBatchSize(1000)
	options.WriteOptions().SetFlushInterval(250)

	client := influxdb2.NewClientWithOptions(baseURL, authToken, options)
	writeAPI := client.WriteAPI(org, bucket)

	// Create a goroutine for reading and logging async write errors.
	errorsCh := writeAPI.Errors()
	go func() {
		for err := range errorsCh {
			log.Printf("influxdb2 logging async write error: %v\n", err)
		}
	}()

	return &influxDBLogger{
		client:      client,
		asyncWriter: writeAPI,
		run:         run,
	}
}

func (l *influxDBLogger) LogMalformedEntry(source string, _ error) {
	p := influxdb2.NewPointWithMeasurement("dnslatency_malformed_entry").
		AddTag("run", l.run).
		AddTag("source", source).
		AddField("count", 1).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogSourceLoaded(source string, read, kept, skipped int) {
	p := influxdb2.NewPointWithMeasurement("dnslatency_source").
		AddTag("run", l.run).
		AddTag("source", source).
		AddField("read", read).
		AddField("kept", kept).
		AddField("skipped", skipped).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogPercentiles(analysis string, group string, n int, table *stats.Table) {
	p := influxdb2.NewPointWithMeasurement("dnslatency_percentiles").
		AddTag("run", l.run).
		AddTag("analysis", analysis).
		AddTag("group", group).
		AddField("n", n).
		SetTime(time.Now())
	values := table.Values()
	for i, percentile := range table.Percentiles() {
		p.AddField(percentileName(percentile), values[i])
	}
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogComparison(analysis string, result *compare.Result) {
	p := influxdb2.NewPointWithMeasurement("dnslatency_comparison").
		AddTag("run", l.run).
		AddTag("analysis", analysis).
		AddTag("baseline", result.Baseline).
		AddTag("candidate", result.Candidate).
		AddField("ks_statistic", result.KS.Statistic).
		AddField("ks_rejected", result.KS.Rejected).
		AddField("improves", result.Improves).
		SetTime(time.Now())
	for _, change := range result.Changes {
		p.AddField(percentileName(change.Percentile), change.Percent)
	}
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogArtifact(analysis string, path string) {
	p := influxdb2.NewPointWithMeasurement("dnslatency_artifact").
		AddTag("run", l.run).
		AddTag("analysis", analysis).
		AddField("path", path).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) Close() {
	l.asyncWriter.Flush()
	l.client.Close()
}
