package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for gateway errors. A *Error matches the sentinel of its kind
// under errors.Is.
var (
	ErrRequest       = errors.New("request setup failed")
	ErrTransport     = errors.New("no response received")
	ErrStatus        = errors.New("backend returned error status")
	ErrInvalidConfig = errors.New("invalid gateway config")
	ErrEmptyResponse = errors.New("empty response")
)

// ErrorKind classifies where a request failed.
type ErrorKind int

// Failure kinds, distinguished for diagnostics only; callers receive all three
// the same way.
const (
	// KindRequest is a failure before dispatch: URL, payload encoding, interceptors.
	KindRequest ErrorKind = iota + 1
	// KindTransport means no response was received.
	KindTransport
	// KindStatus means a response arrived with status >= 400.
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Error is the rejection value of every gateway call.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Method   string
	URL      string

	// Populated for KindStatus.
	Status int
	Header http.Header
	Body   json.RawMessage

	// Err is the underlying cause; nil for KindStatus.
	Err error

	request *Request
}

// Request returns the outgoing call the error belongs to, if known.
func (e *Error) Request() *Request {
	return e.request
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s %s %s: status %d", e.Endpoint, e.Method, e.URL, e.Status)
	case KindTransport:
		return fmt.Sprintf("%s %s %s: %v: %v", e.Endpoint, e.Method, e.URL, ErrTransport, e.Err)
	default:
		return fmt.Sprintf("%s %s %s: %v: %v", e.Endpoint, e.Method, e.URL, ErrRequest, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRequest:
		return e.Kind == KindRequest
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrStatus:
		return e.Kind == KindStatus
	}
	return false
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
