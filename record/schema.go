package record

import (
	"errors"
	"fmt"
)

// FieldSpec declares where a field lives in a raw entry and how to parse it.
// Delimited rows are addressed by Column; CSV rows and JSON objects by Path,
// which defaults to Name. JSON paths may be dotted to reach nested objects,
// e.g. "Timestamp.Start".
type FieldSpec struct {
	Name     string
	Kind     Kind
	Column   int
	Path     string
	Optional bool
}

func (f FieldSpec) path() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// Col declares a field at a fixed column of a delimited row.
func Col(name string, kind Kind, column int) FieldSpec {
	return FieldSpec{Name: name, Kind: kind, Column: column}
}

// Named declares a field addressed by CSV header or JSON path.
func Named(name string, kind Kind, path string) FieldSpec {
	return FieldSpec{Name: name, Kind: kind, Column: -1, Path: path}
}

// StatusSpec derives the success flag of a record from one of its fields:
//   - Pass non-empty: success iff the field's text is one of Pass.
//   - NonZero: success iff the numeric field is not zero.
//   - otherwise the field must be a bool.
//
// An empty Field marks every record successful.
type StatusSpec struct {
	Field   string
	Pass    []string
	NonZero bool
}

type Schema struct {
	Name   string
	Fields []FieldSpec
	Status StatusSpec
}

func (s *Schema) field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks the schema is internally consistent.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.New("Schema.Validate() expected non-empty schema name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("Schema.Validate() expected schema %s to declare fields; got none", s.Name)
	}
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("Schema.Validate() schema %s has a field without a name", s.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("Schema.Validate() schema %s declares field %q twice", s.Name, f.Name)
		}
		seen[f.Name] = true
	}
	if s.Status.Field == "" {
		return nil
	}
	status, ok := s.field(s.Status.Field)
	if !ok {
		return fmt.Errorf("Schema.Validate() schema %s status field %q is not declared", s.Name, s.Status.Field)
	}
	if status.Optional {
		return fmt.Errorf("Schema.Validate() schema %s status field %q must not be optional", s.Name, s.Status.Field)
	}
	if len(s.Status.Pass) == 0 && !s.Status.NonZero && status.Kind != KindBool {
		return fmt.Errorf("Schema.Validate() schema %s status field %q must be bool without pass values; got %s", s.Name, s.Status.Field, status.Kind)
	}
	return nil
}
