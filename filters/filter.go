package filters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kcz17/dnslatency/record"
)

// Policy decides whether failed measurements contribute to samples.
type Policy int

const (
	SuccessOnly Policy = iota
	IncludeFailures
)

type Op = string

const (
	Eq       Op = "eq"
	Ne       Op = "ne"
	Gt       Op = "gt"
	Ge       Op = "ge"
	Lt       Op = "lt"
	Le       Op = "le"
	In       Op = "in"
	NotIn    Op = "notin"
	Contains Op = "contains"
)

// Rule matches records whose Field compares to Value under Op. In and NotIn
// use Values. Ordering operators compare numerically and require a numeric
// field and value; Eq and Ne compare numerically when both sides are numbers
// and textually otherwise.
type Rule struct {
	Field  string
	Op     Op
	Value  string
	Values []string
}

func (r Rule) Validate() error {
	if r.Field == "" {
		return errors.New("Rule.Validate() expected non-empty field")
	}
	switch r.Op {
	case Gt, Ge, Lt, Le:
		if _, err := strconv.ParseFloat(r.Value, 64); err != nil {
			return fmt.Errorf("Rule.Validate() rule on %s expected numeric value for %s; got %q", r.Field, r.Op, r.Value)
		}
	case In, NotIn:
		if len(r.Values) == 0 {
			return fmt.Errorf("Rule.Validate() rule on %s expected values for %s", r.Field, r.Op)
		}
	case Eq, Ne, Contains:
	default:
		return fmt.Errorf("Rule.Validate() rule on %s has unknown op %q", r.Field, r.Op)
	}
	return nil
}

func (r Rule) Matches(rec *record.Record) (bool, error) {
	v, ok := rec.Get(r.Field)
	if !ok {
		return false, &record.MissingFieldError{Field: r.Field, Stage: "filter"}
	}

	switch r.Op {
	case Eq, Ne:
		equal := v.String() == r.Value
		if want, err := strconv.ParseFloat(r.Value, 64); err == nil && v.IsNumeric() {
			equal = v.Float() == want
		}
		return equal == (r.Op == Eq), nil
	case Contains:
		return strings.Contains(v.String(), r.Value), nil
	case In, NotIn:
		found := false
		for _, candidate := range r.Values {
			if v.String() == candidate {
				found = true
				break
			}
		}
		return found == (r.Op == In), nil
	}

	if !v.IsNumeric() {
		return false, fmt.Errorf("filter %s %s %s: field is %s, not numeric", r.Field, r.Op, r.Value, v.Kind())
	}
	want, err := strconv.ParseFloat(r.Value, 64)
	if err != nil {
		return false, fmt.Errorf("filter %s %s %q: %w", r.Field, r.Op, r.Value, err)
	}
	got := v.Float()
	switch r.Op {
	case Gt:
		return got > want, nil
	case Ge:
		return got >= want, nil
	case Lt:
		return got < want, nil
	case Le:
		return got <= want, nil
	}
	return false, fmt.Errorf("filter on %s has unknown op %q", r.Field, r.Op)
}

// Filter keeps records allowed by the policy that match every rule.
type Filter struct {
	policy Policy
	rules  []Rule
}

func NewFilter(policy Policy, rules ...Rule) (*Filter, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("NewFilter() got invalid rule: %w", err)
		}
	}
	return &Filter{policy: policy, rules: rules}, nil
}

// Apply returns the kept records in input order. A rule referencing an absent
// field is a configuration error and aborts with record.ErrMissingField.
func (f *Filter) Apply(records []*record.Record) ([]*record.Record, error) {
	kept := make([]*record.Record, 0, len(records))
	for _, rec := range records {
		if f.policy == SuccessOnly && !rec.Success() {
			continue
		}
		keep := true
		for _, r := range f.rules {
			matches, err := r.Matches(rec)
			if err != nil {
				return nil, fmt.Errorf("Filter.Apply() record %s:%d: %w", rec.Source(), rec.Line(), err)
			}
			if !matches {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}
