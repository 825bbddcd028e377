package aggregate

import "sort"

// Sample holds the values of one cohort in input order. Samples only grow
// while Group builds them and are read-only afterwards.
type Sample struct {
	values []float64
}

func NewSample(values ...float64) *Sample {
	s := &Sample{values: make([]float64, len(values))}
	copy(s.values, values)
	return s
}

func (s *Sample) add(v float64) {
	s.values = append(s.values, v)
}

// Values returns a copy of the values in input order.
func (s *Sample) Values() []float64 {
	values := make([]float64, len(s.values))
	copy(values, s.values)
	return values
}

func (s *Sample) Len() int { return len(s.values) }

// Sorted returns an ascending copy; the sample itself keeps input order.
func (s *Sample) Sorted() []float64 {
	sorted := s.Values()
	sort.Float64s(sorted)
	return sorted
}
