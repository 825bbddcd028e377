package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jamiealquiza/tachymeter"
)

// WriteTables prints percentile tables aligned for reading in a terminal.
func WriteTables(w io.Writer, title string, tables []GroupTable) error {
	if len(tables) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"group", "n"}
	for _, p := range tables[0].Table.Percentiles() {
		header = append(header, "p"+formatFloat(p))
	}
	summarized := tables[0].Summary != nil
	if summarized {
		header = append(header, "mean", "stddev")
	}
	fmt.Fprintf(tw, "[%s]\n", title)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, t := range tables {
		row := []string{t.Group, fmt.Sprint(t.N)}
		for _, v := range t.Table.Values() {
			row = append(row, fmt.Sprintf("%.3f", v))
		}
		if summarized && t.Summary != nil {
			row = append(row, fmt.Sprintf("%.3f", t.Summary.Mean), fmt.Sprintf("%.3f", t.Summary.StdDev))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

// Histogram renders a text histogram of a millisecond latency sample using
// bins buckets.
func Histogram(w io.Writer, label string, values []float64, bins int) error {
	if len(values) == 0 {
		return nil
	}
	tach := tachymeter.New(&tachymeter.Config{Size: len(values), HBins: bins})
	for _, v := range values {
		tach.AddTime(time.Duration(v * float64(time.Millisecond)))
	}
	metrics := tach.Calc()

	if _, err := fmt.Fprintf(w, "%s (n=%d, p50=%s, p95=%s, p99=%s)\n", label, len(values),
		metrics.Time.P50, metrics.Time.P95, metrics.Time.P99); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, metrics.Histogram.String(25))
	return err
}
