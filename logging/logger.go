package logging

import (
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/stats"
)

type Logger interface {
	// LogMalformedEntry reports an entry that was skipped during loading.
	LogMalformedEntry(source string, err error)
	LogSourceLoaded(source string, read, kept, skipped int)
	LogPercentiles(analysis string, group string, n int, table *stats.Table)
	LogComparison(analysis string, result *compare.Result)
	LogArtifact(analysis string, path string)
	// Close flushes buffered output.
	Close()
}

// noopLogger does not perform any logging.
type noopLogger struct{}

func NewNoopLogger() *noopLogger {
	return &noopLogger{}
}

func (*noopLogger) LogMalformedEntry(string, error) {
	return
}

func (*noopLogger) LogSourceLoaded(string, int, int, int) {
	return
}

func (*noopLogger) LogPercentiles(string, string, int, *stats.Table) {
	return
}

func (*noopLogger) LogComparison(string, *compare.Result) {
	return
}

func (*noopLogger) LogArtifact(string, string) {
	return
}

func (*noopLogger) Close() {
	return
}
