package backends

import (
	"errors"
	"fmt"
	"slices"
)

// ErrorCode represents backend error code.
type ErrorCode int

// Error codes.
const (
	_ ErrorCode = iota

	ErrorCodeCollectionDoesNotExist
	ErrorCodeCollectionAlreadyExists
	ErrorCodeCollectionNameIsInvalid

	ErrorCodeInsertDuplicateID
	ErrorCodeDocumentNotFound
)

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeCollectionDoesNotExist:
		return "ErrorCodeCollectionDoesNotExist"
	case ErrorCodeCollectionAlreadyExists:
		return "ErrorCodeCollectionAlreadyExists"
	case ErrorCodeCollectionNameIsInvalid:
		return "ErrorCodeCollectionNameIsInvalid"
	case ErrorCodeInsertDuplicateID:
		return "ErrorCodeInsertDuplicateID"
	case ErrorCodeDocumentNotFound:
		return "ErrorCodeDocumentNotFound"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error represents a backend error returned by all Backend and Collection methods.
type Error struct {
	code ErrorCode

	// Underlying error. May be nil.
	err error
}

// NewError creates a new backend error.
//
// Code must not be 0.
func NewError(code ErrorCode, err error) *Error {
	if code == 0 {
		panic("backends.NewError: code must not be 0")
	}

	return &Error{
		code: code,
		err:  err,
	}
}

// Code returns the error code.
func (err *Error) Code() ErrorCode {
	return err.code
}

// Error implements error interface.
func (err *Error) Error() string {
	if err.err == nil {
		return err.code.String()
	}

	return fmt.Sprintf("%s: %s", err.code, err.err)
}

// Unwrap implements errors.Unwrap interface.
func (err *Error) Unwrap() error {
	return err.err
}

// ErrorCodeIs returns true if err is *Error with one of the given error codes.
//
// At least one error code must be given.
func ErrorCodeIs(err error, code ErrorCode, codes ...ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.code == code || slices.Contains(codes, e.code)
}

// checkError enforces backend interfaces contracts.
//
// Err must be nil, or any error not of *Error type, or *Error with one of the given error codes.
// Other codes are programming errors.
func checkError(err error, codes ...ErrorCode) {
	if err == nil {
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		return
	}

	if !slices.Contains(codes, e.code) {
		panic(fmt.Sprintf("error code is not in %v: %v", codes, err))
	}
}

// check interfaces
var (
	_ error = (*Error)(nil)
)
