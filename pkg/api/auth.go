package api

import (
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthenticated = errors.New("missing authenticated user")

// Authenticator resolves the user a request acts on behalf of.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// TrustedHeaderAuth trusts a user ID header set by a fronting gateway that has
// already authenticated the request.
type TrustedHeaderAuth struct {
	Header string
}

func (a TrustedHeaderAuth) Authenticate(r *http.Request) (string, error) {
	header := a.Header
	if header == "" {
		header = "X-User-ID"
	}
	userID := strings.TrimSpace(r.Header.Get(header))
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}
