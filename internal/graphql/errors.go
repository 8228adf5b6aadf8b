package graphql

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is the kind of a RequestError caused by a wrong
	// email or password. It is never retried.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpired is the kind of a RequestError telling the client to
	// log in again. Execute handles it by re-authenticating.
	ErrSessionExpired = errors.New("session expired")

	// ErrCredentialsRefreshExhausted is returned when every allowed attempt
	// came back with an expired session.
	ErrCredentialsRefreshExhausted = errors.New("unable to refresh access token")

	// ErrAuthDecode is returned when an authentication token cannot be
	// decoded or lacks the user id claim.
	ErrAuthDecode = errors.New("unable to decode authentication token")
)

// dataErrorKinds maps error messages embedded in HTTP 200 responses to the
// error kinds above. Messages not listed here produce a RequestError with a
// nil Kind.
var dataErrorKinds = map[string]error{
	"The password you entered is incorrect. Please try again.": ErrInvalidCredentials,
	"login required": ErrSessionExpired,
}

// RequestError is an application-level error reported inside a GraphQL
// response body.
type RequestError struct {
	Operation string
	Message   string
	// Kind is one of the sentinel errors of this package, or nil when the
	// message is not a known one.
	Kind error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("graphql: %s: %s", e.Operation, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Kind }

// TransportError is a failure below the GraphQL layer: the request could not
// be sent, the server answered with a non-2xx status, or the body was not
// JSON.
type TransportError struct {
	Operation string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("graphql: %s: HTTP %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("graphql: %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// dataError classifies the first error of a response. Only the first error
// is inspected; a response with several errors is reported by its first.
func dataError(operation string, errs []GraphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Message
	return &RequestError{
		Operation: operation,
		Message:   msg,
		Kind:      dataErrorKinds[msg],
	}
}

// errorKind returns the metrics label for err.
func errorKind(err error) string {
	var transportErr *TransportError
	var requestErr *RequestError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrCredentialsRefreshExhausted):
		return "refresh_exhausted"
	case errors.Is(err, ErrAuthDecode):
		return "auth_decode"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &requestErr):
		return "request"
	default:
		return "other"
	}
}
