// Package lazyerrors provides temporary error wrapping for lazy developers.
//
// Errors created or wrapped by this package carry the location of the call site,
// so a chain of wrapped errors reads like a short stack trace.
package lazyerrors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// withStack is an error with the caller's location.
type withStack struct {
	err error
	pc  uintptr
}

// Error implements error interface.
func (ws withStack) Error() string {
	f := runtime.FuncForPC(ws.pc)
	if f == nil {
		return ws.err.Error()
	}

	file, line := f.FileLine(ws.pc)

	return fmt.Sprintf("[%s:%d %s] %s", filepath.Base(file), line, filepath.Base(f.Name()), ws.err)
}

// Unwrap returns the wrapped error.
func (ws withStack) Unwrap() error {
	return ws.err
}

// pc returns the program counter of the caller of the exported function.
func pc() uintptr {
	pc := make([]uintptr, 1)
	runtime.Callers(3, pc)

	return pc[0] - 1
}

// New returns a new error with the given text and the caller's location.
func New(text string) error {
	return withStack{
		err: errors.New(text),
		pc:  pc(),
	}
}

// Errorf formats according to a format specifier and returns the error with the caller's location.
//
// %w verb is supported.
func Errorf(format string, a ...any) error {
	return withStack{
		err: fmt.Errorf(format, a...),
		pc:  pc(),
	}
}

// Error wraps err with the caller's location.
//
// It returns nil if err is nil.
func Error(err error) error {
	if err == nil {
		return nil
	}

	return withStack{
		err: err,
		pc:  pc(),
	}
}
