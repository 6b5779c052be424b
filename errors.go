package automation

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is matched by every *TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupported reports a host value with no Automation equivalent.
	ErrUnsupported = errors.New("unsupported value")

	// ErrNotImplemented reports a host value whose Automation form (arrays)
	// is not implemented.
	ErrNotImplemented = errors.New("not implemented")

	// ErrProtocolMisuse reports a flush on an object with no pending member.
	ErrProtocolMisuse = errors.New("carry-over empty")

	// ErrNotDispatch reports a member access on a value that is not a live
	// VT_DISPATCH.
	ErrNotDispatch = errors.New("not a dispatch object")

	// ErrInvalidDate reports a date outside the Automation date range.
	ErrInvalidDate = errors.New("date may not be valid")
)

// TypeMismatchError is returned by the checked Variant accessors.
type TypeMismatchError struct {
	Op   string
	Want []VarType
	Got  VarType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: source type %s is not %s", e.Op, e.Got, describeTypes(e.Want))
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ConversionError is returned when a host value cannot become a Variant.
type ConversionError struct {
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %T: %v", e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ProviderError is returned when the Automation Provider rejects a call.
type ProviderError struct {
	Op     string // "invoke", "get" or "put"
	Member string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Member, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
