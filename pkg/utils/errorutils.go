package utils

import (
	"runtime"
	"strings"
)

// callerError records the function that passed err up the stack. Its message
// keeps the caller prefix for logs; Cause strips it for people.
type callerError struct {
	caller string
	err    error
}

func (e *callerError) Error() string {
	return e.caller + ": " + e.err.Error()
}

func (e *callerError) Unwrap() error {
	return e.err
}

func WrapIfNotNil(err error, context ...string) error {
	if err == nil {
		return nil
	}

	callerName := "unknown"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			callerName = fn.Name()
		}
	}

	parts := make([]string, 0, 1+len(context))
	parts = append(parts, callerName)
	parts = append(parts, context...)

	return &callerError{caller: strings.Join(parts, " - "), err: err}
}

// Cause peels off the layers added by WrapIfNotNil and returns the error a
// provider or the standard library originally reported. Other wrapping is
// kept since it usually carries meaning.
func Cause(err error) error {
	for {
		wrapped, ok := err.(*callerError)
		if !ok {
			return err
		}
		err = wrapped.err
	}
}
