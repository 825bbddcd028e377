package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Entry is one raw log entry before normalization. Lookup returns the raw
// value addressed by the field spec; ok is false when the entry does not carry it.
type Entry interface {
	Lookup(spec FieldSpec) (raw interface{}, ok bool)
}

// Row is a delimited or CSV row. Header maps column names to indices and is
// nil for headerless logs.
type Row struct {
	Columns []string
	Header  map[string]int
}

func (r Row) Lookup(spec FieldSpec) (interface{}, bool) {
	index := spec.Column
	if index < 0 {
		i, ok := r.Header[spec.path()]
		if !ok {
			return nil, false
		}
		index = i
	}
	if index >= len(r.Columns) {
		return nil, false
	}
	return r.Columns[index], true
}

// NewHeader indexes a CSV header row.
func NewHeader(columns []string) map[string]int {
	header := make(map[string]int, len(columns))
	for i, name := range columns {
		header[strings.TrimSpace(name)] = i
	}
	return header
}

// Object is a decoded JSON object. Numbers should be decoded as json.Number
// so integer timestamps keep full precision.
type Object map[string]interface{}

func (o Object) Lookup(spec FieldSpec) (interface{}, bool) {
	var current interface{} = map[string]interface{}(o)
	for _, part := range strings.Split(spec.path(), ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// DecodeObject parses data as a JSON object preserving number precision.
func DecodeObject(data []byte) (Object, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var o Object
	if err := decoder.Decode(&o); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errors.New("expected a JSON object; got null")
	}
	return o, nil
}
