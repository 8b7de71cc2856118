package rawparse

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrDecode indicates malformed JSON.
	ErrDecode = errors.New("decode error")

	// ErrSchema indicates a missing or invalid field in an otherwise
	// well-formed document.
	ErrSchema = errors.New("schema error")
)

// DecodeError wraps ErrDecode with the path that failed to decode.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrDecode.Error(), e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// SchemaError wraps ErrSchema with the field and path that failed
// validation.
type SchemaError struct {
	Path  string
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %s: %s", ErrSchema.Error(), e.Path, e.Field, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
