package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/record"
	"github.com/kcz17/dnslatency/stats"
)

// formatFloat renders v with the fewest digits that parse back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// GroupTable is the percentile table of one group.
type GroupTable struct {
	Group string
	N     int
	Table *stats.Table
	// Summary is optional; the text table prints mean and stddev when set.
	Summary *stats.Summary
}

func flush(w *csv.Writer) error {
	w.Flush()
	return w.Error()
}

// WriteRecordsCSV writes one row per record. Columns are the union of all
// field names in first-seen order, after the source, line and success
// columns. Fields a record does not carry are left empty.
func WriteRecordsCSV(w io.Writer, records []*record.Record) error {
	var names []string
	seen := map[string]bool{}
	for _, rec := range records {
		for _, name := range rec.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	out := csv.NewWriter(w)
	header := append([]string{"source", "line", "success"}, names...)
	if err := out.Write(header); err != nil {
		return fmt.Errorf("WriteRecordsCSV(): %w", err)
	}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, rec.Source(), strconv.Itoa(rec.Line()), strconv.FormatBool(rec.Success()))
		for _, name := range names {
			v, ok := rec.Get(name)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, v.String())
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("WriteRecordsCSV(): %w", err)
		}
	}
	return flush(out)
}

// WriteTablesCSV writes one row per group with a column per percentile. All
// tables must share the percentiles of the first.
func WriteTablesCSV(w io.Writer, tables []GroupTable) error {
	out := csv.NewWriter(w)
	if len(tables) == 0 {
		return flush(out)
	}

	percentiles := tables[0].Table.Percentiles()
	header := []string{"group", "n"}
	for _, p := range percentiles {
		header = append(header, "p"+formatFloat(p))
	}
	if err := out.Write(header); err != nil {
		return fmt.Errorf("WriteTablesCSV(): %w", err)
	}

	for _, t := range tables {
		values := t.Table.Values()
		if len(values) != len(percentiles) {
			return fmt.Errorf("WriteTablesCSV() group %s has %d percentiles; expected %d", t.Group, len(values), len(percentiles))
		}
		row := []string{t.Group, strconv.Itoa(t.N)}
		for _, v := range values {
			row = append(row, formatFloat(v))
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("WriteTablesCSV(): %w", err)
		}
	}
	return flush(out)
}

// WriteSamplesCSV writes every value in long form, one group,value row each.
func WriteSamplesCSV(w io.Writer, groups *aggregate.Groups, sep string) error {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"group", "value"}); err != nil {
		return fmt.Errorf("WriteSamplesCSV(): %w", err)
	}
	for _, key := range groups.Keys() {
		sample, err := groups.Lookup(key)
		if err != nil {
			return err
		}
		label := key.Label(sep)
		for _, v := range sample.Values() {
			if err := out.Write([]string{label, formatFloat(v)}); err != nil {
				return fmt.Errorf("WriteSamplesCSV(): %w", err)
			}
		}
	}
	return flush(out)
}

// WritePivotCSV writes the p-th percentile of every pivot cell, one row per
// row key. Absent cells are written empty rather than as zero.
func WritePivotCSV(w io.Writer, pivot *aggregate.Pivot, p float64, sep string) error {
	out := csv.NewWriter(w)
	header := []string{""}
	for _, column := range pivot.Columns {
		header = append(header, column.Label(sep))
	}
	if err := out.Write(header); err != nil {
		return fmt.Errorf("WritePivotCSV(): %w", err)
	}

	for _, row := range pivot.Rows {
		line := []string{row.Label(sep)}
		for _, column := range pivot.Columns {
			cell, ok := pivot.Cell(row, column)
			if !ok {
				line = append(line, "")
				continue
			}
			v, err := stats.Percentile(cell.Values(), p)
			if err != nil {
				return fmt.Errorf("WritePivotCSV() cell %s/%s: %w", row, column, err)
			}
			line = append(line, formatFloat(v))
		}
		if err := out.Write(line); err != nil {
			return fmt.Errorf("WritePivotCSV(): %w", err)
		}
	}
	return flush(out)
}
