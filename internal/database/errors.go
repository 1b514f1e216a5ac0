package database

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned before any I/O when a required identifier
// is blank.
type ErrInvalidArgument struct {
	Name string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %s is required", e.Name)
}

// ErrUnsupported is returned by operations that exist in the contract but
// have no implementation.
type ErrUnsupported struct {
	Op string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("%s is not supported", e.Op)
}

// ErrCanceled reports that the caller's context ended the operation.
// It is kept apart from server-side failures.
type ErrCanceled struct {
	Op    string
	Cause error
}

func (e *ErrCanceled) Error() string {
	return fmt.Sprintf("%s canceled: %v", e.Op, e.Cause)
}

func (e *ErrCanceled) Unwrap() error {
	return e.Cause
}

// IsCanceled reports whether err is, or wraps, an ErrCanceled.
func IsCanceled(err error) bool {
	var ce *ErrCanceled
	return errors.As(err, &ce)
}

// IsUnsupported reports whether err is, or wraps, an ErrUnsupported.
func IsUnsupported(err error) bool {
	var ue *ErrUnsupported
	return errors.As(err, &ue)
}

// IsInvalidArgument reports whether err is, or wraps, an ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	var ie *ErrInvalidArgument
	return errors.As(err, &ie)
}
