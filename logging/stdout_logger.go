package logging

import (
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/stats"
)

// stdoutLogger prints human readable events through apex/log's CLI handler.
type stdoutLogger struct {
	log log.Interface
}

func NewStdoutLogger(w io.Writer, verbose bool) *stdoutLogger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &stdoutLogger{log: &log.Logger{Level: level, Handler: cli.New(w)}}
}

func percentileName(p float64) string {
	return fmt.Sprintf("p%v", p)
}

func (l *stdoutLogger) LogMalformedEntry(source string, err error) {
	// Malformed entries are common in long captures, so they are only shown
	// when verbose.
	l.log.WithField("source", source).WithError(err).Debug("skipping malformed entry")
}

func (l *stdoutLogger) LogSourceLoaded(source string, read, kept, skipped int) {
	l.log.WithFields(log.Fields{
		"read":    read,
		"kept":    kept,
		"skipped": skipped,
	}).Infof("[DONE] %s", source)
}

func (l *stdoutLogger) LogPercentiles(analysis string, group string, n int, table *stats.Table) {
	fields := log.Fields{"n": n}
	values := table.Values()
	for i, p := range table.Percentiles() {
		fields[percentileName(p)] = fmt.Sprintf("%.3f", values[i])
	}
	l.log.WithFields(fields).Infof("[%s] %s", analysis, group)
}

func (l *stdoutLogger) LogComparison(analysis string, result *compare.Result) {
	fields := log.Fields{
		"ks":       fmt.Sprintf("%.3f", result.KS.Statistic),
		"rejected": result.KS.Rejected,
		"improves": result.Improves,
	}
	for _, change := range result.Changes {
		fields[percentileName(change.Percentile)] = fmt.Sprintf("%+.2f%%", change.Percent)
	}
	l.log.WithFields(fields).Infof("[%s] %s vs %s", analysis, result.Baseline, result.Candidate)
}

func (l *stdoutLogger) LogArtifact(analysis string, path string) {
	l.log.WithField("analysis", analysis).Infof("wrote %s", path)
}

func (*stdoutLogger) Close() {
	return
}
