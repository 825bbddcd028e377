package aggregate

import (
	"strings"

	"github.com/kcz17/dnslatency/record"
)

// keySeparator never occurs in log labels, so joined parts split back
// unambiguously.
const keySeparator = "\x1f"

// Key is a tuple of categorical field values identifying one cohort. Keys are
// comparable and can be used as map keys.
type Key struct {
	joined string
	n      int
}

func NewKey(parts ...string) Key {
	return Key{joined: strings.Join(parts, keySeparator), n: len(parts)}
}

func (k Key) Parts() []string {
	if k.n == 0 {
		return []string{}
	}
	return strings.Split(k.joined, keySeparator)
}

// Concat returns the key made of k's parts followed by other's.
func (k Key) Concat(other Key) Key {
	switch {
	case k.n == 0:
		return other
	case other.n == 0:
		return k
	}
	return Key{joined: k.joined + keySeparator + other.joined, n: k.n + other.n}
}

// Label renders the key for legends and report rows, e.g. "ODOH: dns.google".
func (k Key) Label(sep string) string {
	return strings.Join(k.Parts(), sep)
}

func (k Key) String() string { return k.Label(" - ") }

// KeyFunc extracts the grouping key of a record.
type KeyFunc func(rec *record.Record) (Key, error)

// ByFields groups by the text of the named fields, in order. A record without
// one of the fields fails with record.ErrMissingField.
func ByFields(names ...string) KeyFunc {
	return func(rec *record.Record) (Key, error) {
		parts := make([]string, len(names))
		for i, name := range names {
			v, err := rec.Text(name)
			if err != nil {
				return Key{}, &record.MissingFieldError{Field: name, Stage: "group by"}
			}
			parts[i] = v
		}
		return NewKey(parts...), nil
	}
}
