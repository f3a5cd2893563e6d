package gemini

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned by New when no API key is available.
// Callers treat it as fatal at startup.
var ErrMissingCredential = errors.New("missing GEMINI_API_KEY")

// TransportError represents a network-layer failure or a non-success HTTP
// status from either remote endpoint. The body, when present, is kept raw
// for diagnosis; no JSON parsing happens before this error is raised.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("transport: HTTP %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError represents a response body that is not valid JSON
// or lacks the expected fields.
type MalformedResponseError struct {
	Reason string
	Body   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %s: %s", e.Reason, e.Body)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsMalformedResponse(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
