package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/compare"
	"github.com/kcz17/dnslatency/config"
	"github.com/kcz17/dnslatency/derive"
	"github.com/kcz17/dnslatency/filters"
	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/record"
	"github.com/kcz17/dnslatency/report"
	"github.com/kcz17/dnslatency/sources"
	"github.com/kcz17/dnslatency/stats"
)

const defaultSeparator = ": "

// NewLogger returns the logger selected by the logging driver.
func NewLogger(cfg config.Logging, w io.Writer) (logging.Logger, error) {
	driver := "noop"
	if cfg.Driver != nil {
		driver = *cfg.Driver
	}
	verbose := cfg.Verbose != nil && *cfg.Verbose

	switch driver {
	case "noop":
		return logging.NewNoopLogger(), nil
	case "stdout":
		return logging.NewStdoutLogger(w, verbose), nil
	case "influxdb":
		if cfg.InfluxDB == nil {
			return nil, fmt.Errorf("NewLogger() expected influxdb options for driver influxdb")
		}
		run := "dnslatency"
		if cfg.Run != nil {
			run = *cfg.Run
		}
		db := cfg.InfluxDB
		return logging.NewInfluxDBLogger(*db.Host, *db.Token, *db.Org, *db.Bucket, run), nil
	}
	return nil, fmt.Errorf("NewLogger() expected driver one of {noop, stdout, influxdb}; got %s", driver)
}

func str(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func flag(b *bool) bool {
	return b != nil && *b
}

var kinds = map[string]record.Kind{
	"string":   record.KindString,
	"number":   record.KindNumber,
	"duration": record.KindDuration,
	"bool":     record.KindBool,
}

func buildSchema(s config.Schema) (*record.Schema, error) {
	schema := &record.Schema{Name: *s.Name}
	for _, f := range s.Fields {
		kind, ok := kinds[*f.Kind]
		if !ok {
			return nil, fmt.Errorf("schema %s field %s has unknown kind %q", *s.Name, *f.Name, *f.Kind)
		}
		spec := record.Named(*f.Name, kind, str(f.Path, ""))
		if f.Column != nil {
			spec = record.Col(*f.Name, kind, *f.Column)
		}
		spec.Optional = flag(f.Optional)
		schema.Fields = append(schema.Fields, spec)
	}
	if s.Status != nil {
		schema.Status = record.StatusSpec{
			Field:   *s.Status.Field,
			Pass:    s.Status.Pass,
			NonZero: flag(s.Status.NonZero),
		}
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

func buildRules(fs []config.Filter) []filters.Rule {
	rules := make([]filters.Rule, 0, len(fs))
	for _, f := range fs {
		rules = append(rules, filters.Rule{
			Field:  *f.Field,
			Op:     *f.Op,
			Value:  str(f.Value, ""),
			Values: f.Values,
		})
	}
	return rules
}

func buildDerivation(d config.Derivation) (derive.Rule, error) {
	rule := derive.Rule{
		Result:    *d.Result,
		From:      str(d.From, ""),
		To:        *d.To,
		UnitField: str(d.UnitField, ""),
	}
	switch {
	case d.Divisor != nil:
		rule.Divisor = *d.Divisor
	case d.FromUnit != nil && d.ToUnit != nil:
		divisor, err := derive.UnitDivisor(*d.FromUnit, *d.ToUnit)
		if err != nil {
			return rule, fmt.Errorf("derivation %s: %w", rule.Result, err)
		}
		rule.Divisor = divisor
	}
	if d.DefaultDivisor != nil {
		rule.DefaultDivisor = *d.DefaultDivisor
	}
	if len(d.Divisors) > 0 {
		rule.Divisors = map[string]float64{}
		for _, u := range d.Divisors {
			rule.Divisors[*u.Unit] = *u.Divisor
		}
	}
	return rule, nil
}

// Plot is one chart an analysis draws from its groups.
type Plot struct {
	Kind      string
	File      string
	Aggregate bool
	Options   report.PlotOptions
}

// Analysis is one configured read, filter, derive, aggregate and report pass.
type Analysis struct {
	Name        string
	Sources     []*sources.Source
	Pre         *filters.Filter
	Deriver     *derive.Deriver
	Post        *filters.Filter
	Value       string
	GroupBy     []string
	ThenBy      []string
	Separator   string
	Percentiles []float64
	Pairs       []compare.Pair
	Plots       []Plot
	Records     bool
	Samples     bool
}

func buildAnalysis(cfg config.Analysis, schemas map[string]*record.Schema, percentiles []float64, progress io.Writer) (*Analysis, error) {
	a := &Analysis{
		Name:        *cfg.Name,
		Value:       *cfg.Value,
		GroupBy:     cfg.GroupBy,
		ThenBy:      cfg.ThenBy,
		Separator:   str(cfg.Separator, defaultSeparator),
		Percentiles: percentiles,
		Records:     flag(cfg.Records),
		Samples:     flag(cfg.Samples),
	}
	if len(cfg.Percentiles) > 0 {
		a.Percentiles = cfg.Percentiles
	}

	for _, s := range cfg.Sources {
		schema, ok := schemas[*s.Schema]
		if !ok {
			builtin, found := sources.Builtin(*s.Schema)
			if !found {
				return nil, fmt.Errorf("analysis %s source %s: unknown schema %q; built-in schemas are %v", a.Name, *s.Name, *s.Schema, sources.BuiltinNames())
			}
			schema = builtin
		}
		src := &sources.Source{
			Name:          *s.Name,
			Kind:          sources.Kind(*s.Kind),
			Path:          *s.Path,
			Schema:        schema,
			Delimiter:     str(s.Delimiter, ""),
			Exclude:       s.Exclude,
			FilenameTag:   str(s.FilenameTag, ""),
			FilenameTrim:  str(s.FilenameTrim, ""),
			PlatformField: str(s.PlatformField, ""),
			Progress:      progress,
		}
		for _, t := range s.Tags {
			src.Tags = append(src.Tags, record.Tag{Field: *t.Field, Value: *t.Value})
		}
		for _, p := range s.Platforms {
			src.Platforms = append(src.Platforms, sources.Platform{LogName: *p.LogName, Name: *p.Name})
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		a.Sources = append(a.Sources, src)
	}

	policy := filters.SuccessOnly
	if flag(cfg.IncludeFailures) {
		policy = filters.IncludeFailures
	}
	var err error
	if a.Pre, err = filters.NewFilter(policy, buildRules(cfg.PreFilters)...); err != nil {
		return nil, fmt.Errorf("analysis %s pre filters: %w", a.Name, err)
	}
	if a.Post, err = filters.NewFilter(filters.IncludeFailures, buildRules(cfg.PostFilters)...); err != nil {
		return nil, fmt.Errorf("analysis %s post filters: %w", a.Name, err)
	}

	var rules []derive.Rule
	for _, d := range cfg.Derive {
		rule, err := buildDerivation(d)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		rules = append(rules, rule)
	}
	if a.Deriver, err = derive.NewDeriver(rules...); err != nil {
		return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
	}

	for _, c := range cfg.Compare {
		a.Pairs = append(a.Pairs, compare.Pair{
			Baseline:  aggregate.NewKey(c.Baseline...),
			Candidate: aggregate.NewKey(c.Candidate...),
		})
	}
	for _, p := range cfg.Plots {
		plot := Plot{
			Kind:      *p.Kind,
			File:      *p.File,
			Aggregate: flag(p.Aggregate),
			Options: report.PlotOptions{
				Title:  str(p.Title, a.Name),
				XLabel: str(p.XAxis, ""),
				LogX:   flag(p.LogX),
			},
		}
		if p.Truncate != nil {
			plot.Options.Truncate = *p.Truncate
		}
		a.Plots = append(a.Plots, plot)
	}
	return a, nil
}

// Options carries the writers of a run.
type Options struct {
	// Out receives the text percentile tables.
	Out io.Writer
	// Progress receives progress bars when enabled in the configuration.
	Progress io.Writer
}

// NewRun compiles the configuration. Every structural mistake that can be
// found without reading logs is reported here.
func NewRun(cfg *config.Config, logger logging.Logger, opts Options) (*Run, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	var progress io.Writer
	if flag(cfg.Output.Progress) {
		progress = opts.Progress
	}

	schemas := map[string]*record.Schema{}
	for _, s := range cfg.Schemas {
		schema, err := buildSchema(s)
		if err != nil {
			return nil, fmt.Errorf("NewRun(): %w", err)
		}
		schemas[schema.Name] = schema
	}

	percentiles := stats.DefaultPercentiles
	if len(cfg.Percentiles) > 0 {
		percentiles = cfg.Percentiles
	}

	run := &Run{
		logger: logger,
		out:    opts.Out,
		dir:    str(cfg.Output.Dir, "results"),
		plots:  flag(cfg.Output.Plots),
	}
	for _, a := range cfg.Analyses {
		analysis, err := buildAnalysis(a, schemas, percentiles, progress)
		if err != nil {
			return nil, fmt.Errorf("NewRun(): %w", err)
		}
		run.analyses = append(run.analyses, analysis)
	}
	return run, nil
}
