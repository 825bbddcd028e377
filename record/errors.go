package record

import (
	"errors"
	"fmt"
)

// ErrMalformedEntry is matched by every error returned when a raw entry cannot
// be normalized. Malformed entries are skipped by callers, never fatal.
var ErrMalformedEntry = errors.New("malformed entry")

// ErrMissingField is matched when a stage references a field that a record
// does not carry. This indicates a misconfigured pipeline and aborts the run.
var ErrMissingField = errors.New("missing field")

type MalformedEntryError struct {
	Schema string
	Field  string
	Line   int
	Reason string
}

func (e *MalformedEntryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %s entry at line %d: %s", e.Schema, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed %s entry at line %d: field %q: %s", e.Schema, e.Line, e.Field, e.Reason)
}

func (e *MalformedEntryError) Unwrap() error { return ErrMalformedEntry }

type MissingFieldError struct {
	Field string
	// Stage names the pipeline stage that asked for the field.
	Stage string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: record has no field %q", e.Stage, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }
