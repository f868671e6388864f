package summary

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	msgInvalidID  = "Invalid proposal ID. Please provide a valid positive number."
	msgNotFound   = "Proposal #%d does not exist. Please check the proposal ID and try again."
	msgProcessing = "Unable to process proposal #%d. Please try again later."
	msgUnexpected = "An unexpected error occurred. Please try again later."
)

// Kind classifies a failed request.
type Kind uint8

const (
	// KindUnhandled is any failure outside the known taxonomy,
	// including recovered panics.
	KindUnhandled Kind = iota

	// KindInvalidInput means the id did not parse as a non-negative
	// integer.
	KindInvalidInput

	// KindNotFound means the subgraph has no such proposal.
	KindNotFound

	// KindSourceUnavailable means the subgraph could not be queried.
	KindSourceUnavailable

	// KindSummarizationFailed means the summarizer call failed.
	KindSummarizationFailed
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindSummarizationFailed:
		return "summarization_failed"
	default:
		return "unhandled"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified request failure. Msg is safe to show to clients.
type Error struct {
	Kind Kind

	// ID is the proposal id, or -1 when it never parsed.
	ID int64

	Msg string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the underlying cause as text, for development mode
// responses.
func (e *Error) Details() string {
	if e.Err == nil {
		return ""
	}

	return e.Err.Error()
}

// AsError classifies err. Errors that are not already *Error are reported
// as KindUnhandled.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr
	}

	return &Error{Kind: KindUnhandled, ID: -1, Msg: msgUnexpected, Err: err}
}

func unhandled(id int64, cause any) *Error {
	return &Error{
		Kind: KindUnhandled,
		ID:   id,
		Msg:  msgUnexpected,
		Err:  fmt.Errorf("panic: %v", cause),
	}
}
