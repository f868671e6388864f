package proposal

import "fmt"

// NotFoundError is returned when the subgraph has no proposal with the
// requested id.
type NotFoundError struct {
	ID int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("proposal #%d does not exist", e.ID)
}

// SourceUnavailableError is returned when the subgraph could not be queried
// or answered with something other than a proposal lookup result.
type SourceUnavailableError struct {
	ID int64

	// StatusCode is the HTTP status returned by the subgraph, or zero if
	// no response was received.
	StatusCode int

	// Reason describes what went wrong.
	Reason string

	Err error
}

// Error implements the error interface. The message is the reason alone,
// e.g. "HTTP error! status: 502".
func (e *SourceUnavailableError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}

	return fmt.Sprintf("subgraph unavailable for proposal #%d", e.ID)
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
