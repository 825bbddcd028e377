package aggregate

import (
	"fmt"

	"github.com/kcz17/dnslatency/record"
)

// Nested is a two-level grouping, e.g. protocol then resolver.
type Nested struct {
	outer  []Key
	groups map[Key]*Groups
}

// GroupNested groups records by outer, then each outer cohort by inner.
func GroupNested(records []*record.Record, outer, inner KeyFunc, value string) (*Nested, error) {
	n := &Nested{groups: map[Key]*Groups{}}
	for _, rec := range records {
		outerKey, err := outer(rec)
		if err != nil {
			return nil, fmt.Errorf("GroupNested() record %s:%d: %w", rec.Source(), rec.Line(), err)
		}
		innerKey, err := inner(rec)
		if err != nil {
			return nil, fmt.Errorf("GroupNested() record %s:%d: %w", rec.Source(), rec.Line(), err)
		}
		v, err := rec.Number(value)
		if err != nil {
			return nil, fmt.Errorf("GroupNested() record %s:%d: %w", rec.Source(), rec.Line(), err)
		}

		g, ok := n.groups[outerKey]
		if !ok {
			g = newGroups()
			n.groups[outerKey] = g
			n.outer = append(n.outer, outerKey)
		}
		g.add(innerKey, v.Float())
	}
	return n, nil
}

func (n *Nested) Keys() []Key {
	keys := make([]Key, len(n.outer))
	copy(keys, n.outer)
	return keys
}

func (n *Nested) Lookup(outer Key) (*Groups, error) {
	g, ok := n.groups[outer]
	if !ok {
		return nil, fmt.Errorf("Nested.Lookup(%s): %w", outer, ErrUnknownGroup)
	}
	return g, nil
}

// Flatten concatenates outer and inner keys. The mapping equals a single
// Group on the concatenated key; keys are ordered outer cohort first.
func (n *Nested) Flatten() *Groups {
	flat := newGroups()
	for _, o := range n.outer {
		inner := n.groups[o]
		for _, i := range inner.keys {
			k := o.Concat(i)
			flat.keys = append(flat.keys, k)
			flat.samples[k] = inner.samples[i]
		}
	}
	return flat
}

// Pivot lays a nested grouping out as a table: one row per outer key, one
// column per inner key in first-seen order across all rows. Cells without
// data are absent rather than zero.
type Pivot struct {
	Rows    []Key
	Columns []Key
	nested  *Nested
}

func (n *Nested) Pivot() *Pivot {
	p := &Pivot{Rows: n.Keys(), nested: n}
	seen := map[Key]bool{}
	for _, o := range n.outer {
		for _, i := range n.groups[o].keys {
			if !seen[i] {
				seen[i] = true
				p.Columns = append(p.Columns, i)
			}
		}
	}
	return p
}

func (p *Pivot) Cell(row, column Key) (*Sample, bool) {
	g, ok := p.nested.groups[row]
	if !ok {
		return nil, false
	}
	s, ok := g.samples[column]
	return s, ok
}
