package search

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// TransportError wraps a network failure, a timeout or an unreadable
// response body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned when the engine answers with a non-success status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected http status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("unexpected http status %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func NewTransportError(err error) error {
	return errors.WithStack(&TransportError{Err: err})
}

func NewHTTPStatusError(statusCode int, body string) error {
	return errors.WithStack(&HTTPStatusError{StatusCode: statusCode, Body: body})
}

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// StatusCode returns the http status carried by err, or 0 if err does not
// wrap a *HTTPStatusError.
func StatusCode(err error) int {
	var target *HTTPStatusError
	if errors.As(err, &target) {
		return target.StatusCode
	}

	return 0
}
