package httpclient

import (
	"fmt"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/invoicer/internal/errors"
)

// Error represents a non-2xx response
type Error struct {
	StatusCode int
	Response   []byte
	err        error
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Error() string {
	return e.err.Error()
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Response:   response,
		err: ierr.NewError(fmt.Sprintf("unexpected status %d", statusCode)).
			WithHint("The upstream service returned an error").
			WithReportableDetails(map[string]any{
				"status_code": statusCode,
			}).
			Mark(ierr.ErrHTTPClient),
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
