package session

import (
	"errors"
	"fmt"
)

// ErrorKind is the classified reason a request failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidCredentials
	KindBanned
	KindCannotConnect
	KindUnknownHost
	KindTimeout
	KindAPIError
)

// String returns the kind name used in logs
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindBanned:
		return "banned"
	case KindCannotConnect:
		return "cannot_connect"
	case KindUnknownHost:
		return "unknown_host"
	case KindTimeout:
		return "timeout"
	case KindAPIError:
		return "api_error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against a classified *Error.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrBanned             = &Error{Kind: KindBanned}
	ErrCannotConnect      = &Error{Kind: KindCannotConnect}
	ErrUnknownHost        = &Error{Kind: KindUnknownHost}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// Error is a classified request failure.
type Error struct {
	Kind ErrorKind
	// Code is the HTTP status behind the failure, zero when no response was read.
	Code int
	// Err is the underlying cause when there is one.
	Err error
}

// APIError returns a KindAPIError for the given HTTP status
func APIError(code int) *Error {
	return &Error{Kind: KindAPIError, Code: code}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	switch {
	case e.Kind == KindAPIError:
		msg = fmt.Sprintf("api error: status %d", e.Code)
	case e.Code != 0:
		msg = fmt.Sprintf("%s: status %d", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Code when the target carries one.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == 0 || t.Code == e.Code
}

// Message returns the text shown to users for this error.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "Invalid username or password"
	case KindBanned:
		return "Your IP is banned by the server"
	case KindCannotConnect:
		return "Cannot connect to the server"
	case KindUnknownHost:
		return "Cannot resolve the server address"
	case KindTimeout:
		return "Connection timed out"
	default:
		return "An unknown error occurred"
	}
}

// AddressError reports a profile address that cannot be turned into a URL.
type AddressError struct {
	Host string
	Err  error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("malformed server address %q: %v", e.Host, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a failure to read or decode a response body.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
