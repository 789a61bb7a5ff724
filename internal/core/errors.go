package core

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is the closed result type of every operation in this package.
// Code is always one of Unauthenticated, InvalidArgument,
// FailedPrecondition, AlreadyExists or Internal.
type Error struct {
	Code    codes.Code
	Field   string // set for InvalidArgument
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// GRPCStatus lets status.Code and status.Convert understand *Error.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// ErrUnauthenticated is returned when an operation requires a signed-in caller.
func ErrUnauthenticated() *Error {
	return &Error{Code: codes.Unauthenticated, Message: "The function must be called while authenticated."}
}

// ErrInvalidArgument names the offending field in both the message and Field.
func ErrInvalidArgument(field, message string) *Error {
	return &Error{Code: codes.InvalidArgument, Field: field, Message: message}
}

// ErrFailedPrecondition reports a rule the caller cannot satisfy by retrying.
func ErrFailedPrecondition(message string) *Error {
	return &Error{Code: codes.FailedPrecondition, Message: message}
}

// ErrAlreadyExists reports a uniqueness conflict.
func ErrAlreadyExists(message string) *Error {
	return &Error{Code: codes.AlreadyExists, Message: message}
}

// ErrInternal hides cause from the client; it is only kept for logs.
func ErrInternal(cause error) *Error {
	return &Error{Code: codes.Internal, Message: "An internal error occurred. Please try again.", cause: cause}
}

// AsError returns err as an *Error, collapsing anything unexpected into Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternal(err)
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code codes.Code) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}
