package errors

import (
	stdErrors "errors"
	"fmt"
)

// BatchError is returned when a load batch had to be rolled back.
// Title names the book that was being written when the failure happened.
type BatchError struct {
	Title string
	Err   error
}

func (e *BatchError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("batch rolled back: %v", e.Err)
	}
	return fmt.Sprintf("batch rolled back at %q: %v", e.Title, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// NewBatchError wraps err with the title of the offending book.
func NewBatchError(title string, err error) *BatchError {
	return &BatchError{Title: title, Err: err}
}

// IsBatchError reports whether err is a BatchError (even when wrapped).
func IsBatchError(err error) bool {
	var batchErr *BatchError
	return stdErrors.As(err, &batchErr)
}
