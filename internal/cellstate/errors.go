package cellstate

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrTargetParse indicates the external parser failed to construct an
	// UnflavoredBuildTarget from a RawTargetNode while inserting a manifest.
	// It is a checked domain error: the insertion fails and the cache is
	// left unchanged.
	ErrTargetParse = errors.New("target parse error")

	// ErrInvariantViolation indicates a computed node was inserted whose
	// unflavored target is not present in RawTargetSet (I1). This is a
	// programmer error, not a recoverable condition: callers that hit it
	// should abort rather than continue with a corrupted cache.
	ErrInvariantViolation = errors.New("cache invariant violation")
)

// TargetParseError wraps ErrTargetParse with the path and short name that
// failed to resolve, so a bulk loader can report which file and rule were at
// fault without parsing the message string.
type TargetParseError struct {
	Path      AbsPath
	ShortName string
	Err       error
}

func (e *TargetParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrTargetParse.Error(), e.Path, e.ShortName, e.Err)
}

func (e *TargetParseError) Unwrap() error { return ErrTargetParse }

// InvariantViolationError wraps ErrInvariantViolation. CellState panics with
// one of these rather than returning it: an invariant breach means the cache
// is already corrupted, and should fail loudly rather than be caught and
// handled.
type InvariantViolationError struct {
	Invariant string // e.g. "I1" for raw-cover
	Msg       string
}

func (e *InvariantViolationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s): %s", ErrInvariantViolation.Error(), e.Invariant, e.Msg)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }
