package report

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/kcz17/dnslatency/aggregate"
	"github.com/kcz17/dnslatency/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// AggregateLabel names the union curve added next to per-group curves.
const AggregateLabel = "Aggregate"

// Series is one labelled sample to draw.
type Series struct {
	Label  string
	Values []float64
}

// SeriesOf returns one series per group in key order, followed by the union
// of all groups when withAggregate is set.
func SeriesOf(groups *aggregate.Groups, sep string, withAggregate bool) ([]Series, error) {
	var series []Series
	for _, key := range groups.Keys() {
		sample, err := groups.Lookup(key)
		if err != nil {
			return nil, err
		}
		series = append(series, Series{Label: key.Label(sep), Values: sample.Values()})
	}
	if withAggregate && groups.Len() > 1 {
		series = append(series, Series{Label: AggregateLabel, Values: groups.Merge().Values()})
	}
	return series, nil
}

type PlotOptions struct {
	Title  string
	XLabel string
	// LogX draws the latency axis on a log scale. Non-positive values cannot
	// be placed on it and are left out.
	LogX bool
	// Truncate, if in (0, 1), cuts CDF curves at that quantile. The tail is
	// saved next to the main plot with a "-tail" suffix.
	Truncate float64
	Width    vg.Length
	Height   vg.Length
}

func (o PlotOptions) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 5 * vg.Inch
	}
	return w, h
}

func (o PlotOptions) xLabel() string {
	if o.XLabel == "" {
		return "Time (ms)"
	}
	return o.XLabel
}

func newPlot(title, xLabel, yLabel string, logX bool) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{}
	}
	p.Legend.Top = true
	return p, nil
}

// points copies the curve, dropping points a log axis cannot show.
func points(c *stats.Curve, logX bool) plotter.XYs {
	xys := make(plotter.XYs, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		x, y := c.XY(i)
		if logX && x <= 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

// addCurve reports whether a line was added; empty curves are skipped.
func addCurve(p *plot.Plot, i int, label string, xys plotter.XYs) (bool, error) {
	if len(xys) == 0 {
		return false, nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return false, err
	}
	line.Color = plotutil.Color(i)
	line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
	if label == AggregateLabel {
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)}
	}
	p.Add(line)
	p.Legend.Add(label, line)
	return true, nil
}

func tailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-tail" + ext
}

// CDFPlot draws the empirical CDF of every series and saves it to path. It
// returns the paths written.
func CDFPlot(path string, series []Series, opts PlotOptions) ([]string, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("CDFPlot(%s): %w", path, stats.ErrEmptySample)
	}
	truncate := opts.Truncate > 0 && opts.Truncate < 1

	head, err := newPlot(opts.Title, opts.xLabel(), "CDF", opts.LogX)
	if err != nil {
		return nil, err
	}
	var tail *plot.Plot
	if truncate {
		tailTitle := fmt.Sprintf("%s (above p%v)", opts.Title, opts.Truncate*100)
		// The tail spans orders of magnitude, so it is always drawn on a log
		// scale.
		if tail, err = newPlot(strings.TrimSpace(tailTitle), opts.xLabel(), "CDF", true); err != nil {
			return nil, err
		}
	}

	var headLines, tailLines int
	for i, s := range series {
		curve, err := stats.CDF(s.Values)
		if errors.Is(err, stats.ErrEmptySample) {
			continue
		}
		if err != nil {
			return nil, err
		}
		h, t := curve, (*stats.Curve)(nil)
		if truncate {
			h, t = curve.Split(opts.Truncate)
		}
		added, err := addCurve(head, i, s.Label, points(h, opts.LogX))
		if err != nil {
			return nil, err
		}
		if added {
			headLines++
		}
		if t == nil {
			continue
		}
		if added, err = addCurve(tail, i, s.Label, points(t, true)); err != nil {
			return nil, err
		}
		if added {
			tailLines++
		}
	}
	if headLines == 0 {
		return nil, fmt.Errorf("CDFPlot(%s) has nothing to draw: %w", path, stats.ErrEmptySample)
	}

	w, h := opts.size()
	if err := head.Save(w, h, path); err != nil {
		return nil, fmt.Errorf("CDFPlot() could not save %s: %w", path, err)
	}
	written := []string{path}
	if tailLines > 0 {
		if err := tail.Save(w, h, tailPath(path)); err != nil {
			return nil, fmt.Errorf("CDFPlot() could not save %s: %w", tailPath(path), err)
		}
		written = append(written, tailPath(path))
	}
	return written, nil
}

// BoxPlot draws one horizontal box per series, one row per label.
func BoxPlot(path string, series []Series, opts PlotOptions) error {
	p, err := newPlot(opts.Title, opts.xLabel(), "", opts.LogX)
	if err != nil {
		return err
	}

	var names []string
	for _, s := range series {
		values := s.Values
		if opts.LogX {
			values = positive(values)
		}
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(len(names)), plotter.Values(values))
		if err != nil {
			return fmt.Errorf("BoxPlot() series %s: %w", s.Label, err)
		}
		box.Horizontal = true
		p.Add(box)
		names = append(names, s.Label)
	}
	if len(names) == 0 {
		return fmt.Errorf("BoxPlot(%s): %w", path, stats.ErrEmptySample)
	}
	p.NominalY(names...)
	p.Legend.Top = false

	w, h := opts.size()
	if minHeight := vg.Length(len(names)) * vg.Points(30); h < minHeight {
		h = minHeight
	}
	return p.Save(w, h, path)
}

// HistogramPlot draws a histogram of a single series with bins buckets.
func HistogramPlot(path string, s Series, bins int, opts PlotOptions) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("HistogramPlot(%s): %w", path, stats.ErrEmptySample)
	}
	p, err := newPlot(opts.Title, opts.xLabel(), "Count", false)
	if err != nil {
		return err
	}
	hist, err := plotter.NewHist(plotter.Values(s.Values), bins)
	if err != nil {
		return err
	}
	p.Add(hist)
	p.Legend.Add(s.Label, hist)

	w, h := opts.size()
	return p.Save(w, h, path)
}

func positive(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
