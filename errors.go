package proxima

import (
	"errors"
	"fmt"
)

// Common errors shared by all store implementations. The in-memory store
// only ever raises ErrDimensionMismatch and ErrInvalidQuery; the remaining
// sentinels are the vocabulary reserved for stores backed by external
// resources.
var (
	ErrDimensionMismatch = errors.New("proxima: vector dimension mismatch")
	ErrInvalidQuery      = errors.New("proxima: invalid query vector")
	ErrStoreUnavailable  = errors.New("proxima: store unavailable")
	ErrInsertFailed      = errors.New("proxima: insert failed")
	ErrDeleteFailed      = errors.New("proxima: delete failed")
	ErrNotFound          = errors.New("proxima: record not found")
)

// DimensionError reports a vector whose length does not match the store's
// configured dimensionality. It matches ErrDimensionMismatch with errors.Is.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("proxima: vector dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("proxima.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
