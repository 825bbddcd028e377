package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/record"
	"github.com/kcz17/dnslatency/report"
	"github.com/kcz17/dnslatency/sources"
)

// Percentiles prints the percentile table of one numeric CSV column, split by
// the group columns if any. Rows whose column does not parse are skipped.
func Percentiles(ctx context.Context, path, column string, groupBy []string, percentiles []float64, out io.Writer, logger logging.Logger) ([]report.GroupTable, error) {
	schema := &record.Schema{
		Name:   "csv",
		Fields: []record.FieldSpec{record.Named(column, record.KindNumber, "")},
	}
	for _, g := range groupBy {
		schema.Fields = append(schema.Fields, record.Named(g, record.KindString, ""))
	}

	records, _, err := sources.Load(ctx, &sources.Source{
		Name:   path,
		Kind:   sources.KindCSV,
		Path:   path,
		Schema: schema,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("Percentiles(): %w", err)
	}

	groups, err := aggregate.Group(records, aggregate.ByFields(groupBy...), column)
	if err != nil {
		return nil, err
	}
	a := &Analysis{Name: column, Separator: defaultSeparator, Percentiles: percentiles}
	r := &Run{logger: logger, out: out}
	tables, err := r.tables(a, groups)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("Percentiles() %s has no values in column %s", path, column)
	}
	return tables, report.WriteTables(out, column, tables)
}
