package record

import "fmt"

// Record is one normalized log entry. Records are never mutated after
// construction: With and WithTags return modified copies.
type Record struct {
	source  string
	line    int
	success bool
	names   []string
	fields  map[string]Value
}

func New(source string, line int, success bool) *Record {
	return &Record{
		source:  source,
		line:    line,
		success: success,
		fields:  map[string]Value{},
	}
}

// set must only be called while a record is being built.
func (r *Record) set(name string, v Value) {
	if _, exists := r.fields[name]; !exists {
		r.names = append(r.names, name)
	}
	r.fields[name] = v
}

func (r *Record) clone() *Record {
	c := &Record{
		source:  r.source,
		line:    r.line,
		success: r.success,
		names:   make([]string, len(r.names)),
		fields:  make(map[string]Value, len(r.fields)+1),
	}
	copy(c.names, r.names)
	for k, v := range r.fields {
		c.fields[k] = v
	}
	return c
}

// With returns a copy of the record with the field set to v.
func (r *Record) With(name string, v Value) *Record {
	c := r.clone()
	c.set(name, v)
	return c
}

// WithTags returns a copy of the record carrying every tag as a string field.
// Tags override fields of the same name.
func (r *Record) WithTags(tags []Tag) *Record {
	if len(tags) == 0 {
		return r
	}
	c := r.clone()
	for _, t := range tags {
		c.set(t.Field, StringValue(t.Value))
	}
	return c
}

func (r *Record) Source() string { return r.source }
func (r *Record) Line() int      { return r.line }
func (r *Record) Success() bool  { return r.success }

// Names returns field names in insertion order.
func (r *Record) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

func (r *Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Number returns a numeric field, failing with ErrMissingField if it is absent.
func (r *Record) Number(name string) (Value, error) {
	v, ok := r.fields[name]
	if !ok {
		return Value{}, &MissingFieldError{Field: name, Stage: "Record.Number()"}
	}
	if !v.IsNumeric() {
		return Value{}, fmt.Errorf("Record.Number() expected field %q numeric; got %s", name, v.Kind())
	}
	return v, nil
}

// Text returns any field rendered as a string, failing with ErrMissingField if
// it is absent.
func (r *Record) Text(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", &MissingFieldError{Field: name, Stage: "Record.Text()"}
	}
	return v.String(), nil
}

// Tag is a source-level categorical field attached to every record of a
// source, e.g. Protocol=DNSCrypt or Unit=ns.
type Tag struct {
	Field string
	Value string
}
