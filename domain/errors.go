package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenInvalid ErrorCode = "TOKEN_INVALID"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Details optionally carries
// structured data for the client, attached to the response envelope.
type Error struct {
	Code    ErrorCode
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying client-facing data.
// The shared sentinel stays untouched.
func (e *Error) WithDetails(details interface{}) *Error {
	copied := *e
	copied.Details = details
	return &copied
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrProjectNotFound    = NewError(ErrCodeNotFound, "project not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrInvitationNotFound = NewError(ErrCodeNotFound, "invitation not found")
	ErrAttachmentNotFound = NewError(ErrCodeNotFound, "attachment not found")

	ErrUnauthorized      = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden         = NewError(ErrCodeForbidden, "access denied")
	ErrEmailNotConfirmed = NewError(ErrCodeForbidden, "email confirmation required")
	ErrInvalidPayload    = NewError(ErrCodeInvalid, "invalid payload")

	ErrDuplicateEmail      = NewError(ErrCodeConflict, "user already exists with this email")
	ErrAlreadyAMember      = NewError(ErrCodeConflict, "user is already a project member")
	ErrDuplicateInvitation = NewError(ErrCodeConflict, "invitation already sent to this email")

	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrInvalidToken       = NewError(ErrCodeTokenInvalid, "invalid or expired token")

	// ErrRegistrationRequired signals the client to register before accepting
	// an invitation; the invitee email rides along in the response payload.
	ErrRegistrationRequired = NewError(ErrCodeForbidden, "please register an account first")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf extracts the classification of an error, defaulting to internal.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
