package stats

import "fmt"

// Curve is an empirical CDF: X holds the sorted sample and Y[i] = (i+1)/n.
type Curve struct {
	X []float64
	Y []float64
}

func CDF(sample []float64) (*Curve, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("CDF(): %w", ErrEmptySample)
	}

	n := float64(len(sample))
	c := &Curve{
		X: sortedCopy(sample),
		Y: make([]float64, len(sample)),
	}
	for i := range c.Y {
		c.Y[i] = float64(i+1) / n
	}
	return c, nil
}

func (c *Curve) Len() int { return len(c.X) }

// XY satisfies the plotter.XYer interface.
func (c *Curve) XY(i int) (float64, float64) { return c.X[i], c.Y[i] }

// Split cuts the curve at the last point with Y <= q. That point starts the
// tail, so the zoomed tail plot joins the head; the head holds every point
// before it. When no point has Y <= q the head is empty. Reports use the head
// for the main plot and the tail for a zoomed inset.
func (c *Curve) Split(q float64) (head, tail *Curve) {
	i := 0
	for j, y := range c.Y {
		if y <= q {
			i = j
		}
	}
	return &Curve{X: c.X[:i], Y: c.Y[:i]}, &Curve{X: c.X[i:], Y: c.Y[i:]}
}
