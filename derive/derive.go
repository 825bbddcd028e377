package derive

import (
	"errors"
	"fmt"
	"github.com/kcz17/dnslatency/record"
)

// ErrUnknownUnit is returned when a record's unit tag has no declared divisor
// and the rule has no default.
var ErrUnknownUnit = errors.New("unknown unit tag")

// Rule computes Result = (To - From) / divisor. An empty From makes a scaling
// rule, Result = To / divisor, used for dumps that record a duration directly.
//
// The divisor is Divisor, unless UnitField is set: then the record's UnitField
// value selects a divisor from Divisors, falling back to DefaultDivisor.
type Rule struct {
	Result string
	From   string
	To     string

	Divisor        float64
	UnitField      string
	Divisors       map[string]float64
	DefaultDivisor float64
}

func (r Rule) Validate() error {
	if r.Result == "" || r.To == "" {
		return fmt.Errorf("Rule.Validate() expected Result and To set; got rule = %+v", r)
	}
	if r.Divisor < 0 || r.DefaultDivisor < 0 {
		return fmt.Errorf("Rule.Validate() rule %s expected non-negative divisors", r.Result)
	}
	for tag, d := range r.Divisors {
		if d <= 0 {
			return fmt.Errorf("Rule.Validate() rule %s expected positive divisor for unit %q; got %v", r.Result, tag, d)
		}
	}
	if len(r.Divisors) > 0 && r.UnitField == "" {
		return fmt.Errorf("Rule.Validate() rule %s declares unit divisors without a unit field", r.Result)
	}
	return nil
}

func (r Rule) divisor(rec *record.Record) (float64, error) {
	if r.UnitField == "" {
		if r.Divisor == 0 {
			return 1, nil
		}
		return r.Divisor, nil
	}

	tag, err := rec.Text(r.UnitField)
	if err != nil {
		return 0, &record.MissingFieldError{Field: r.UnitField, Stage: "derive " + r.Result}
	}
	if d, ok := r.Divisors[tag]; ok {
		return d, nil
	}
	if r.DefaultDivisor > 0 {
		return r.DefaultDivisor, nil
	}
	return 0, fmt.Errorf("derive %s: unit %q in field %s: %w", r.Result, tag, r.UnitField, ErrUnknownUnit)
}

func (r Rule) operand(rec *record.Record, name string) (record.Value, error) {
	v, ok := rec.Get(name)
	if !ok {
		return record.Value{}, &record.MissingFieldError{Field: name, Stage: "derive " + r.Result}
	}
	if !v.IsNumeric() {
		return record.Value{}, fmt.Errorf("derive %s: expected field %q numeric; got %s", r.Result, name, v.Kind())
	}
	return v, nil
}

// Apply returns a copy of rec carrying the derived field. Negative results are
// kept; filtering them is the caller's decision.
func Apply(rec *record.Record, r Rule) (*record.Record, error) {
	b, err := r.operand(rec, r.To)
	if err != nil {
		return nil, err
	}
	a := record.IntValue(0)
	if r.From != "" {
		if a, err = r.operand(rec, r.From); err != nil {
			return nil, err
		}
	}
	divisor, err := r.divisor(rec)
	if err != nil {
		return nil, err
	}

	// Subtract exactly when both operands are integers: epoch nanoseconds do
	// not fit in a float64 mantissa.
	var diff float64
	ai, aIsInt := a.Int()
	bi, bIsInt := b.Int()
	if aIsInt && bIsInt {
		d := bi - ai
		if divisor == 1 {
			return rec.With(r.Result, record.IntValue(d)), nil
		}
		diff = float64(d)
	} else {
		diff = b.Float() - a.Float()
	}

	return rec.With(r.Result, record.FloatValue(diff/divisor)), nil
}

// Deriver applies an ordered list of rules, so later rules may use fields
// produced by earlier ones.
type Deriver struct {
	rules []Rule
}

func NewDeriver(rules ...Rule) (*Deriver, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("NewDeriver() got invalid rule: %w", err)
		}
	}
	return &Deriver{rules: rules}, nil
}

// ApplyAll derives every rule for every record. Errors are structural, so the
// first one aborts.
func (d *Deriver) ApplyAll(records []*record.Record) ([]*record.Record, error) {
	out := make([]*record.Record, 0, len(records))
	for _, rec := range records {
		derived := rec
		for _, r := range d.rules {
			var err error
			if derived, err = Apply(derived, r); err != nil {
				return nil, fmt.Errorf("Deriver.ApplyAll() record %s:%d: %w", rec.Source(), rec.Line(), err)
			}
		}
		out = append(out, derived)
	}
	return out, nil
}
