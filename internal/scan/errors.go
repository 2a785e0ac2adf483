package scan

import "fmt"

// SchemaLookupError reports a process or part the catalog does not know.
type SchemaLookupError struct {
	Kind string
	Name string
	Err  error
}

func (e *SchemaLookupError) Error() string {
	return fmt.Sprintf("could not find a %s defined as %q", e.Kind, e.Name)
}

func (e *SchemaLookupError) Unwrap() error { return e.Err }

// FieldFormatError reports a malformed or out-of-range field value.
type FieldFormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldFormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func formatErr(field, value, reason string) error {
	return &FieldFormatError{Field: field, Value: value, Reason: reason}
}
