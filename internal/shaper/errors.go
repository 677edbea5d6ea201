package shaper

import "fmt"

// Error is returned when a result row cannot be reshaped according to
// its plan: a column the plan expects is missing, or a relation column
// holds something other than well-formed JSON.
type Error struct {
	Kind string
	Path string
	Msg  string
	err  error
}

// Kind is always ShapeMismatch; it is a string (not a typed constant)
// so shaper.Error's Kind is directly comparable with compiler.Kind's
// string values without the two packages importing each other.
const ShapeMismatch = "ShapeMismatch"

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

func newErr(path, format string, args ...interface{}) *Error {
	return &Error{Kind: ShapeMismatch, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(path string, err error) *Error {
	return &Error{Kind: ShapeMismatch, Path: path, Msg: err.Error(), err: err}
}
