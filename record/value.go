package record

import (
	"strconv"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	// KindDuration is parsed from text carrying a unit suffix such as "12.3ms".
	// Once parsed it behaves exactly like KindNumber.
	KindDuration
	KindBool
)

func (k Kind) String() string {
	return [...]string{"string", "number", "duration", "bool"}[k]
}

// Value is a single typed field value. Integers are kept exactly in i so that
// nanosecond epoch timestamps survive subtraction without float rounding.
type Value struct {
	kind  Kind
	str   string
	num   float64
	i     int64
	isInt bool
	b     bool
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

func FloatValue(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func IntValue(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), i: i, isInt: true}
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether the value can be used in arithmetic.
func (v Value) IsNumeric() bool {
	return v.kind == KindNumber || v.kind == KindDuration
}

// Int returns the exact integer form of the value, if it has one.
func (v Value) Int() (int64, bool) {
	return v.i, v.IsNumeric() && v.isInt
}

func (v Value) Float() float64 { return v.num }

func (v Value) Bool() bool { return v.b }

// String renders the value losslessly: floats use the shortest representation
// that parses back to the same float64.
func (v Value) String() string {
	switch v.kind {
	case KindNumber, KindDuration:
		if v.isInt {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}
