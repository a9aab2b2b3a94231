package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedResponse is wrapped when the server answers with a status the client does not handle.
var ErrUnexpectedResponse = errors.New("client: unexpected response")

// LoginError is a failed login, carrying a message fit to show the user.
// It never says whether the account exists.
type LoginError struct {
	Status  int
	Message string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (%d): %s", e.Status, e.Message)
}

func newLoginError(status int) *LoginError {
	msg := "Login failed. Please try again."
	switch status {
	case http.StatusBadRequest:
		msg = "Please enter your email and password."
	case http.StatusUnauthorized:
		msg = "Invalid email or password."
	case http.StatusTooManyRequests:
		msg = "Too many login attempts. Please wait a few minutes and try again."
	}
	return &LoginError{Status: status, Message: msg}
}
