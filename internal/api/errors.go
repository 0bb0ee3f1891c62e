package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned by SignIn when the service rejects the
	// username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNoToken is returned by SignIn when a 2xx response carries no jwt.
	ErrNoToken = errors.New("sign-in response carried no token")
	// ErrRegistrationFailed is returned by SignUp on any non-2xx response.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrUnauthorized matches 401 and 403 responses, and calls made without a
	// bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrNetwork wraps transport failures (refused connection, timeout, ...).
	ErrNetwork = errors.New("network failure")
)

// StatusError reports a non-2xx response. Body holds a redacted snippet.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is lets callers match a StatusError against ErrUnauthorized and ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}
