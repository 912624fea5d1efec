// Package errs defines the typed error taxonomy shared by the transform and
// load stages. Callers match with errors.As; the coordinator uses the types to
// decide between "record and continue" (builder errors) and "abort the batch"
// (load errors).
package errs

import "fmt"

// MissingSourceError indicates that a required raw or previously-transformed
// input is absent. Dir distinguishes "directory absent" from "directory empty"
// in diagnostics only; behavior is the same either way.
type MissingSourceError struct {
	Entity string
	Dir    string
	Err    error
}

func (e *MissingSourceError) Error() string {
	if e.Dir != "" {
		return fmt.Sprintf("missing source %q: %s", e.Entity, e.Dir)
	}
	return fmt.Sprintf("missing source %q", e.Entity)
}

func (e *MissingSourceError) Unwrap() error { return e.Err }

// ValidationError indicates an input that is present but malformed, e.g. a
// snapshot file that does not decode into the expected entity shape.
type ValidationError struct {
	Entity string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q input: %s", e.Entity, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransformError indicates a derivation step that cannot complete, e.g. an
// unresolvable join while building a fact table.
type TransformError struct {
	Entity string
	Step   string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q: %s: %v", e.Entity, e.Step, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// LoadError indicates a connectivity or constraint failure while merging a
// batch into the warehouse. Batch is the zero-based index of the failed batch;
// batches committed before it are not rolled back.
type LoadError struct {
	Table string
	Batch int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (batch %d): %v", e.Table, e.Batch, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
