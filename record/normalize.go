package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// durationSuffixes are stripped by ParseDuration. Longer suffixes come first
// so "ms" is not mistaken for "s".
var durationSuffixes = []string{"ms", "us", "µs", "ns", "s"}

// ParseDuration parses elapsed-time text such as "12.3ms". The unit suffix is
// stripped but not converted, so "12.3ms" yields 12.3.
func ParseDuration(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	for _, suffix := range durationSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	if s == "" {
		return 0, fmt.Errorf("ParseDuration() expected a number; got %q", raw)
	}
	f, err := parseDecimal(s)
	if err != nil {
		return 0, fmt.Errorf("ParseDuration() could not parse %q: %w", raw, err)
	}
	return f, nil
}

// parseDecimal parses finite decimal floats only. strconv.ParseFloat also
// accepts NaN, Inf and hex floats, none of which a latency log writes.
func parseDecimal(s string) (float64, error) {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return 0, fmt.Errorf("unexpected character %q in number %q", r, s)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a finite number; got %q", s)
	}
	return f, nil
}

func parseNumber(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := parseDecimal(s)
	if err != nil {
		return Value{}, err
	}
	return FloatValue(f), nil
}

// isBlank reports raw values that carry no data, such as empty CSV cells.
func isBlank(raw interface{}) bool {
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseValue(raw interface{}, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		switch v := raw.(type) {
		case string:
			return StringValue(v), nil
		case json.Number:
			return StringValue(v.String()), nil
		case bool:
			return StringValue(strconv.FormatBool(v)), nil
		}
	case KindNumber:
		switch v := raw.(type) {
		case string:
			return parseNumber(v)
		case json.Number:
			return parseNumber(v.String())
		case float64:
			return FloatValue(v), nil
		}
	case KindDuration:
		switch v := raw.(type) {
		case string:
			f, err := ParseDuration(v)
			if err != nil {
				return Value{}, err
			}
			value := FloatValue(f)
			value.kind = KindDuration
			return value, nil
		case json.Number:
			value, err := parseNumber(v.String())
			if err != nil {
				return Value{}, err
			}
			value.kind = KindDuration
			return value, nil
		case float64:
			value := FloatValue(v)
			value.kind = KindDuration
			return value, nil
		}
	case KindBool:
		switch v := raw.(type) {
		case bool:
			return BoolValue(v), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return Value{}, err
			}
			return BoolValue(b), nil
		}
	}
	return Value{}, fmt.Errorf("cannot use %T as %s", raw, kind)
}

// Normalize turns one raw entry into a Record following schema. It is a pure
// function; line is only used for reporting. A missing required field or an
// unparseable value fails with a *MalformedEntryError.
func Normalize(entry Entry, schema *Schema, source string, line int) (*Record, error) {
	malformed := func(field, reason string) error {
		return &MalformedEntryError{Schema: schema.Name, Field: field, Line: line, Reason: reason}
	}

	rec := New(source, line, true)
	for _, spec := range schema.Fields {
		raw, ok := entry.Lookup(spec)
		if !ok || (spec.Kind != KindString && isBlank(raw)) {
			if spec.Optional {
				continue
			}
			return nil, malformed(spec.Name, "required field is missing")
		}
		v, err := parseValue(raw, spec.Kind)
		if err != nil {
			return nil, malformed(spec.Name, err.Error())
		}
		rec.set(spec.Name, v)
	}

	if schema.Status.Field != "" {
		status := rec.fields[schema.Status.Field]
		switch {
		case len(schema.Status.Pass) > 0:
			rec.success = false
			for _, pass := range schema.Status.Pass {
				if status.String() == pass {
					rec.success = true
					break
				}
			}
		case schema.Status.NonZero:
			if !status.IsNumeric() {
				return nil, malformed(schema.Status.Field, "status field is not numeric")
			}
			rec.success = status.Float() != 0
		default:
			if status.Kind() != KindBool {
				return nil, malformed(schema.Status.Field, "status field is not a bool")
			}
			rec.success = status.Bool()
		}
	}

	return rec, nil
}
