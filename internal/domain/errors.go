package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAlreadyConnected is returned when a user asks to pair an instance that is already connected
var ErrAlreadyConnected = &AlreadyConnectedError{}

// AlreadyConnectedError is a terminal, user-visible pairing failure
type AlreadyConnectedError struct{}

func (e *AlreadyConnectedError) Error() string {
	return "you are already connected to whatsapp"
}

// HTTPStatus returns the status the boundary responds with
func (e *AlreadyConnectedError) HTTPStatus() int {
	return http.StatusBadRequest
}

// AuthError is a failed bearer-token check
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status the boundary responds with
func (e *AuthError) HTTPStatus() int {
	return e.Status
}

// ErrTokenMissing is returned when no bearer token was sent
var ErrTokenMissing = &AuthError{Status: http.StatusNotFound, Message: "token not sent"}

// ErrUserNotFound is returned when the token resolves to no user
var ErrUserNotFound = &AuthError{Status: http.StatusNotFound, Message: "user not found"}

// NewUnauthorized wraps any other token validation failure
func NewUnauthorized(err error) *AuthError {
	return &AuthError{Status: http.StatusUnauthorized, Message: "UNAUTHORIZED", Err: err}
}

// RemoteCallError is any failed call to the gateway or the record store
type RemoteCallError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s failed: %v", e.Service, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s %s failed with status code %d", e.Service, e.Method, e.Path, e.StatusCode)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// IsRemoteStatus reports whether err is a remote call error that received the given status
func IsRemoteStatus(err error, status int) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce) && rce.StatusCode == status
}
