package aggregate

import (
	"errors"
	"fmt"

	"github.com/kcz17/dnslatency/record"
)

var ErrUnknownGroup = errors.New("unknown group")

// Groups maps cohort keys to samples. Keys iterate in the order they were
// first seen in the input.
type Groups struct {
	keys    []Key
	samples map[Key]*Sample
}

func newGroups() *Groups {
	return &Groups{samples: map[Key]*Sample{}}
}

func (g *Groups) add(key Key, v float64) {
	sample, ok := g.samples[key]
	if !ok {
		sample = &Sample{}
		g.samples[key] = sample
		g.keys = append(g.keys, key)
	}
	sample.add(v)
}

// Group partitions records by keyFn, collecting the numeric field value of
// each record into its cohort's sample. Records must already be filtered by
// the caller's success policy. A record without the value field fails the
// whole grouping with record.ErrMissingField.
func Group(records []*record.Record, keyFn KeyFunc, value string) (*Groups, error) {
	g := newGroups()
	for _, rec := range records {
		key, err := keyFn(rec)
		if err != nil {
			return nil, fmt.Errorf("Group() record %s:%d: %w", rec.Source(), rec.Line(), err)
		}
		v, err := rec.Number(value)
		if err != nil {
			return nil, fmt.Errorf("Group() record %s:%d: %w", rec.Source(), rec.Line(), err)
		}
		g.add(key, v.Float())
	}
	return g, nil
}

func (g *Groups) Keys() []Key {
	keys := make([]Key, len(g.keys))
	copy(keys, g.keys)
	return keys
}

func (g *Groups) Len() int { return len(g.keys) }

// Lookup returns the sample of key, or ErrUnknownGroup if no record produced
// that key.
func (g *Groups) Lookup(key Key) (*Sample, error) {
	sample, ok := g.samples[key]
	if !ok {
		return nil, fmt.Errorf("Groups.Lookup(%s): %w", key, ErrUnknownGroup)
	}
	return sample, nil
}

// Map returns every cohort's values keyed by cohort.
func (g *Groups) Map() map[Key][]float64 {
	m := make(map[Key][]float64, len(g.keys))
	for _, k := range g.keys {
		m[k] = g.samples[k].Values()
	}
	return m
}

// Merge returns the union of all samples in key order, e.g. the "Aggregate"
// curve drawn next to per-target curves.
func (g *Groups) Merge() *Sample {
	merged := &Sample{}
	for _, k := range g.keys {
		merged.values = append(merged.values, g.samples[k].values...)
	}
	return merged
}

// Select returns the groups whose keys satisfy keep, preserving order.
func (g *Groups) Select(keep func(Key) bool) *Groups {
	selected := newGroups()
	for _, k := range g.keys {
		if keep(k) {
			selected.keys = append(selected.keys, k)
			selected.samples[k] = g.samples[k]
		}
	}
	return selected
}
