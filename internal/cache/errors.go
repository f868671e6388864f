package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCached is returned by Put when a summary for the id is
	// already stored. The existing row is kept.
	ErrAlreadyCached = errors.New("summary already cached")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("summary cache closed")
)

// ConnectError is returned when every connection attempt failed.
type ConnectError struct {
	// Attempts is the number of dial+probe attempts made.
	Attempts int

	// Err is the error of the last attempt.
	Err error
}

// Error returns the error message.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect after %d attempts: %v",
		e.Attempts, e.Err)
}

// Unwrap returns the error of the last attempt.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
