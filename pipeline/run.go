package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/record"
	"github.com/kcz17/dnslatency/report"
	"github.com/kcz17/dnslatency/sources"
	"github.com/kcz17/dnslatency/stats"
)

// Run is one analysis run. All state of the run lives here and is handed to
// every stage explicitly.
type Run struct {
	analyses []*Analysis
	logger   logging.Logger
	out      io.Writer
	dir      string
	plots    bool
}

func (r *Run) Analyses() []*Analysis { return r.analyses }

// Result is what one analysis produced.
type Result struct {
	Analysis string
	Loaded   sources.Stats
	// Kept counts records that survived filtering.
	Kept        int
	Groups      *aggregate.Groups
	Nested      *aggregate.Nested
	Tables      []report.GroupTable
	Comparisons []*compare.Result
	Artifacts   []string
}

// Execute runs every analysis in order. Structural errors such as a missing
// field abort the run; malformed log entries are only reported.
func (r *Run) Execute(ctx context.Context) ([]*Result, error) {
	var results []*Result
	for _, a := range r.analyses {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.execute(ctx, a)
		if err != nil {
			return results, fmt.Errorf("Run.Execute() analysis %s: %w", a.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Run) load(ctx context.Context, a *Analysis) ([]*record.Record, sources.Stats, error) {
	var records []*record.Record
	var total sources.Stats
	for _, src := range a.Sources {
		loaded, stats, err := sources.Load(ctx, src, r.logger)
		if err != nil {
			return nil, total, err
		}
		records = append(records, loaded...)
		total.Files += stats.Files
		total.Read += stats.Read
		total.Kept += stats.Kept
		total.Skipped += stats.Skipped
	}
	return records, total, nil
}

// label names a group, falling back to the analysis name for the single
// group of an ungrouped analysis.
func (a *Analysis) label(key aggregate.Key) string {
	if len(key.Parts()) == 0 {
		return a.Name
	}
	return key.Label(a.Separator)
}

func (r *Run) execute(ctx context.Context, a *Analysis) (*Result, error) {
	result := &Result{Analysis: a.Name}

	records, loaded, err := r.load(ctx, a)
	if err != nil {
		return nil, err
	}
	result.Loaded = loaded

	if records, err = a.Pre.Apply(records); err != nil {
		return nil, err
	}
	if records, err = a.Deriver.ApplyAll(records); err != nil {
		return nil, err
	}
	if records, err = a.Post.Apply(records); err != nil {
		return nil, err
	}
	result.Kept = len(records)

	outer := aggregate.ByFields(a.GroupBy...)
	if result.Groups, err = aggregate.Group(records, outer, a.Value); err != nil {
		return nil, err
	}
	tableGroups := result.Groups
	if len(a.ThenBy) > 0 {
		if result.Nested, err = aggregate.GroupNested(records, outer, aggregate.ByFields(a.ThenBy...), a.Value); err != nil {
			return nil, err
		}
		tableGroups = result.Nested.Flatten()
	}
	if tableGroups.Len() == 0 {
		return nil, fmt.Errorf("no %s values left after filtering %d loaded records: %w", a.Value, loaded.Kept, stats.ErrEmptySample)
	}

	if result.Tables, err = r.tables(a, tableGroups); err != nil {
		return nil, err
	}
	if err := report.WriteTables(r.out, a.Name, result.Tables); err != nil {
		return nil, err
	}

	if len(a.Pairs) > 0 {
		if result.Comparisons, err = compare.Matrix(result.Groups, a.Pairs, a.Percentiles...); err != nil {
			return nil, err
		}
		for _, c := range result.Comparisons {
			r.logger.LogComparison(a.Name, c)
		}
	}

	if result.Artifacts, err = r.write(a, records, result, tableGroups); err != nil {
		return nil, err
	}
	return result, nil
}

// tables computes the percentile table of every group, plus the union of all
// groups when there is more than one.
func (r *Run) tables(a *Analysis, groups *aggregate.Groups) ([]report.GroupTable, error) {
	var tables []report.GroupTable
	add := func(label string, sample *aggregate.Sample) error {
		table, err := stats.NewTable(sample.Values(), a.Percentiles...)
		if err != nil {
			return fmt.Errorf("group %s: %w", label, err)
		}
		summary, err := stats.Summarize(sample.Values())
		if err != nil {
			return fmt.Errorf("group %s: %w", label, err)
		}
		r.logger.LogPercentiles(a.Name, label, sample.Len(), table)
		tables = append(tables, report.GroupTable{Group: label, N: sample.Len(), Table: table, Summary: summary})
		return nil
	}

	for _, key := range groups.Keys() {
		sample, err := groups.Lookup(key)
		if err != nil {
			return nil, err
		}
		if err := add(a.label(key), sample); err != nil {
			return nil, err
		}
	}
	if groups.Len() > 1 {
		if err := add(report.AggregateLabel, groups.Merge()); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (r *Run) create(dir, name string, write func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, f.Close()
}

func (r *Run) write(a *Analysis, records []*record.Record, result *Result, tableGroups *aggregate.Groups) ([]string, error) {
	dir := filepath.Join(r.dir, a.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var artifacts []string
	created := func(path string, err error) error {
		if err != nil {
			return err
		}
		r.logger.LogArtifact(a.Name, path)
		artifacts = append(artifacts, path)
		return nil
	}

	if err := created(r.create(dir, "percentiles.csv", func(w io.Writer) error {
		return report.WriteTablesCSV(w, result.Tables)
	})); err != nil {
		return nil, err
	}
	if a.Samples {
		if err := created(r.create(dir, "samples.csv", func(w io.Writer) error {
			return report.WriteSamplesCSV(w, tableGroups, a.Separator)
		})); err != nil {
			return nil, err
		}
	}
	if a.Records {
		if err := created(r.create(dir, "records.csv", func(w io.Writer) error {
			return report.WriteRecordsCSV(w, records)
		})); err != nil {
			return nil, err
		}
	}
	if result.Nested != nil {
		if err := created(r.create(dir, "pivot.csv", func(w io.Writer) error {
			return report.WritePivotCSV(w, result.Nested.Pivot(), 50, a.Separator)
		})); err != nil {
			return nil, err
		}
	}

	if !r.plots {
		return artifacts, nil
	}
	for _, p := range a.Plots {
		paths, err := r.plot(a, p, dir, tableGroups)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", p.File, err)
		}
		for _, path := range paths {
			if err := created(path, nil); err != nil {
				return nil, err
			}
		}
	}
	return artifacts, nil
}

func (r *Run) plot(a *Analysis, p Plot, dir string, groups *aggregate.Groups) ([]string, error) {
	path := filepath.Join(dir, p.File)
	series, err := report.SeriesOf(groups, a.Separator, p.Aggregate)
	if err != nil {
		return nil, err
	}
	for i, key := range groups.Keys() {
		series[i].Label = a.label(key)
	}

	switch p.Kind {
	case "cdf":
		return report.CDFPlot(path, series, p.Options)
	case "boxplot":
		return []string{path}, report.BoxPlot(path, series, p.Options)
	case "histogram":
		merged := report.Series{Label: a.Name, Values: groups.Merge().Values()}
		if err := report.HistogramPlot(path, merged, 100, p.Options); err != nil {
			return nil, err
		}
		for _, s := range series {
			if err := report.Histogram(r.out, s.Label, s.Values, 10); err != nil {
				return nil, err
			}
		}
		return []string{path}, nil
	}
	return nil, fmt.Errorf("unknown plot kind %q", p.Kind)
}
