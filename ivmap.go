// Package ivmap holds the types and error values shared by every store in
// the module: the half-open Interval, and the sentinel errors produced by
// the record index and the two engines (isetmap, ilistmap).
package ivmap

import "github.com/pkg/errors"

// Interval is a half-open integer range [A, B).  Endpoints are interpreted
// as the binary formats in ivformat store them: unsigned 32-bit values that
// fit in 0 <= A < B <= 2^32-1.
type Interval struct {
	A, B uint32
}

// Len returns B-A, the length of the interval. Callers are expected to only
// call this on intervals satisfying A < B.
func (iv Interval) Len() int64 {
	return int64(iv.B) - int64(iv.A)
}

// Empty reports whether the interval is empty or inverted.
func (iv Interval) Empty() bool {
	return iv.B <= iv.A
}

// Sentinel errors surfaced by the record index and both engines. Use
// errors.Is to test for these; call sites wrap them with errors.Wrap to
// attach positional context (path, id, index).
var (
	// ErrMalformedFile is raised at Open time: a truncated header, a
	// truncated interval array, or a record that extends past EOF.
	ErrMalformedFile = errors.New("ivmap: malformed file")

	// ErrIdNotFound is raised when an id is absent from the index and the
	// caller passed use_default=false.
	ErrIdNotFound = errors.New("ivmap: id not found")

	// ErrIndexOutOfRange is raised by positional accessors given k >= n.
	ErrIndexOutOfRange = errors.New("ivmap: index out of range")

	// ErrInvalidArgument is raised for malformed queries, e.g. a probe
	// interval with b <= a.
	ErrInvalidArgument = errors.New("ivmap: invalid argument")
)
