package session

// Result is either a value or a classified error, never both.
type Result[T any] struct {
	value T
	err   *Error
	ok    bool
}

// Success wraps a value
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Failure wraps a classified error. A nil error is treated as KindUnknown.
func Failure[T any](err *Error) Result[T] {
	if err == nil {
		err = &Error{Kind: KindUnknown}
	}
	return Result[T]{err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.ok
}

// Value returns the value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the classified error, or nil on success.
func (r Result[T]) Err() *Error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return &Error{Kind: KindUnknown}
	}
	return r.err
}

// Get returns the value and a plain error for callers that prefer (T, error).
func (r Result[T]) Get() (T, error) {
	if !r.ok {
		var zero T
		return zero, r.Err()
	}
	return r.value, nil
}

// Map converts a successful value, passing failures through untouched.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Failure[U](r.Err())
	}
	return Success(fn(r.value))
}
