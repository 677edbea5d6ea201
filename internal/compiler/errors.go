package compiler

import "fmt"

// Kind classifies a compilation failure. The four compile-time kinds
// are defined here; DriverError and ShapeMismatch are defined by
// packages driver and shaper. Callers typically switch on Kind rather
// than matching error strings.
type Kind string

const (
	SchemaMismatch  Kind = "SchemaMismatch"
	InvalidArgument Kind = "InvalidArgument"
	Unsupported     Kind = "Unsupported"
	DepthExceeded   Kind = "DepthExceeded"
)

// Error is the error type every compiler entry point returns on
// failure. Path records the dotted location within the query
// description (e.g. "include.posts.where.authorId") where the failure
// was detected.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

func newErr(kind Kind, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func schemaMismatch(path, format string, args ...interface{}) *Error {
	return newErr(SchemaMismatch, path, format, args...)
}

func invalidArgument(path, format string, args ...interface{}) *Error {
	return newErr(InvalidArgument, path, format, args...)
}

func unsupported(path, format string, args ...interface{}) *Error {
	return newErr(Unsupported, path, format, args...)
}

func depthExceeded(path string, limit int) *Error {
	return newErr(DepthExceeded, path, "relation nesting exceeds limit of %d", limit)
}

// validatePagination rejects negative take/skip per the boundary
// behaviors every query-shaped compile path must honor.
func validatePagination(path string, take, skip *int) error {
	if take != nil && *take < 0 {
		return invalidArgument(path, "take must not be negative, got %d", *take)
	}
	if skip != nil && *skip < 0 {
		return invalidArgument(path, "skip must not be negative, got %d", *skip)
	}
	return nil
}
