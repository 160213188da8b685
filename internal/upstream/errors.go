// Package upstream classifies and performs calls to the public web services
// the parcel search depends on.
package upstream

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"

	"github.com/rotisserie/eris"
)

// Error is a failed call to an upstream service: either a non-2xx status or
// a transport failure (StatusCode 0).
type Error struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewStatusError builds the error for an unexpected HTTP status. The body is
// truncated so a large HTML error page does not flood the logs.
func NewStatusError(service string, statusCode int, body []byte) *Error {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &Error{
		Service:    service,
		StatusCode: statusCode,
		Err:        eris.Errorf("unexpected status %d: %s", statusCode, string(body)),
	}
}

// NewTransportError wraps a request that never produced a response.
func NewTransportError(service string, err error) *Error {
	return &Error{Service: service, Err: err}
}

// IsUpstream reports whether err (or anything in its chain) comes from an
// upstream call: an explicit *Error, a URL/transport error from net/http, or
// a network-level failure.
func IsUpstream(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range []error{err, eris.Cause(err)} {
		var ue *Error
		if errors.As(e, &ue) {
			return true
		}
		var urlErr *url.Error
		if errors.As(e, &urlErr) {
			return true
		}
		var netErr net.Error
		if errors.As(e, &netErr) {
			return true
		}
		if errors.Is(e, syscall.ECONNRESET) ||
			errors.Is(e, syscall.ECONNREFUSED) ||
			errors.Is(e, syscall.ECONNABORTED) {
			return true
		}
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	for _, e := range []error{err, eris.Cause(err)} {
		var ue *Error
		if errors.As(e, &ue) {
			return ue.StatusCode
		}
	}
	return 0
}
