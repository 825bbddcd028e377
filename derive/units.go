package derive

import "fmt"

// unitNanoseconds is the length of each time unit in nanoseconds.
var unitNanoseconds = map[string]float64{
	"ns": 1,
	"us": 1e3,
	"µs": 1e3,
	"ms": 1e6,
	"s":  1e9,
}

// UnitDivisor returns the divisor converting a difference measured in unit
// from into unit to, e.g. UnitDivisor("ns", "ms") = 1e6.
func UnitDivisor(from, to string) (float64, error) {
	f, ok := unitNanoseconds[from]
	if !ok {
		return 0, fmt.Errorf("UnitDivisor() unit %q: %w", from, ErrUnknownUnit)
	}
	t, ok := unitNanoseconds[to]
	if !ok {
		return 0, fmt.Errorf("UnitDivisor() unit %q: %w", to, ErrUnknownUnit)
	}
	return t / f, nil
}
