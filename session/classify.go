package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
)

// Bodies returned by auth/login.
const (
	LoginOK     = "Ok."
	LoginFailed = "Fails."
)

// ClassifyError maps a transport or decoding failure onto an *Error.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		if isTimeout(decodeErr.Err) {
			return &Error{Kind: KindTimeout, Err: err}
		}
		return &Error{Kind: KindUnknown, Err: err}
	}

	var addrErr *AddressError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &addrErr), errors.As(err, &dnsErr):
		return &Error{Kind: KindUnknownHost, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Kind: KindCannotConnect, Err: err}
	case isTimeout(err):
		return &Error{Kind: KindTimeout, Err: err}
	}

	return &Error{Kind: KindUnknown, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyLogin returns nil when the login response means the session is authenticated.
func classifyLogin(resp *Response[string]) *Error {
	if resp == nil {
		return &Error{Kind: KindUnknown}
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: KindBanned}
	case resp.Body != nil && *resp.Body == LoginFailed:
		return &Error{Kind: KindInvalidCredentials}
	case !resp.Successful() || resp.Body == nil || *resp.Body != LoginOK:
		return &Error{Kind: KindUnknown}
	}

	return nil
}

// classifyResponse turns a final operation response into a Result. Any
// unsuccessful status is Unknown; the status stays on Error.Code.
func classifyResponse[T any](resp *Response[T]) Result[T] {
	if resp == nil {
		return Failure[T](&Error{Kind: KindUnknown})
	}
	if !resp.Successful() {
		return Failure[T](&Error{Kind: KindUnknown, Code: resp.StatusCode})
	}
	if resp.Body == nil {
		return Failure[T](&Error{Kind: KindUnknown})
	}
	return Success(*resp.Body)
}
