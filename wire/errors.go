package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decode error kinds. Every decode failure unwraps to exactly one of these.
var (
	ErrTruncatedInput     = errors.New("truncated input")
	ErrMalformedVarint    = errors.New("malformed varint")
	ErrInvalidEncoding    = errors.New("invalid UTF-8 in string field")
	ErrLengthMismatch     = errors.New("declared length exceeds remaining input")
	ErrInvalidWireType    = errors.New("invalid wire type")
	ErrInvalidFieldNumber = errors.New("invalid field number")
	ErrMaxDepth           = errors.New("message nesting exceeds maximum depth")
)

// Message construction errors.
var (
	ErrFrozen       = errors.New("message is frozen")
	ErrUnknownField = errors.New("unknown field")
	ErrTypeMismatch = errors.New("value type does not match field kind")
)

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["bids", "price"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at field path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// WrapFieldError prefixes the error's field path with fieldName, wrapping
// err in a FieldError if it is not one already.
func WrapFieldError(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
