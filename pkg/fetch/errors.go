package fetch

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindStatus    ErrorKind = "status"
	KindTransport ErrorKind = "transport"
)

var (
	ErrInvalidURL     = errors.New("url must be absolute and use http or https")
	ErrBlockedAddress = errors.New("destination address is not allowed")
)

// Error is returned by Fetch for non-2xx responses and for network failures.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("failed to fetch page: %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch page: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func statusError(url string, code int) *Error {
	return &Error{Kind: KindStatus, URL: url, StatusCode: code}
}

func transportError(url string, err error) *Error {
	return &Error{Kind: KindTransport, URL: url, Err: err}
}
