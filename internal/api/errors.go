package api

import "fmt"

// NetworkError is a transport failure: the request never produced an HTTP
// response. Not retried automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError means the session cannot continue: the refresh call failed or
// no usable credential is held. The client clears the credential and fires
// the auth-expired handler before returning this.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

// ServerError is a non-2xx response with the status and the server's
// detail message. 401/403 are expected to be handled contextually by the
// caller rather than shown as generic failures.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Detail)
}

// ValidationError is a client-side rejection: the request was never sent.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }
