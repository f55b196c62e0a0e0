package hl7v2

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers need to tell apart.
// Parse and path errors wrap these, so errors.Is works across the
// contextual wrappers.
var (
	// ErrEmptyMessage is returned when there is nothing to parse.
	ErrEmptyMessage = errors.New("hl7v2: message is empty")

	// ErrMissingMSH is returned when the first segment is not MSH and no
	// fallback delimiters were supplied.
	ErrMissingMSH = errors.New("hl7v2: first segment must be MSH")

	// ErrInvalidDelimiters is returned for a malformed MSH-2 value or a
	// delimiter set that is not mutually distinct.
	ErrInvalidDelimiters = errors.New("hl7v2: invalid delimiters")

	// ErrInvalidPath is returned for a syntactically malformed terser path.
	// A well-formed path addressing absent data is not an error.
	ErrInvalidPath = errors.New("hl7v2: invalid terser path")
)

// ParseError is a fatal structural parse failure. Line is the 1-based
// segment line the failure was detected on.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (segment line %d): %s", e.Err, e.Line, e.Reason)
	}
	return fmt.Sprintf("hl7v2: parse error at segment line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PathError reports a malformed terser path. It matches ErrInvalidPath
// under errors.Is.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("hl7v2: invalid terser path %q: %s", e.Path, e.Reason)
}

func (e *PathError) Is(target error) bool { return target == ErrInvalidPath }
