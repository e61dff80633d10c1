// Package model holds the types shared by every flow package: the error
// taxonomy surfaced to hosts and the field-level error details.
package model

import (
	"errors"
	"fmt"
)

// Flow error codes. None of these are fatal; hosts render them as a disabled
// action, an inline message or a confirmation prompt.
const (
	ErrValidationBlocked       = "VALIDATION_BLOCKED"
	ErrInvalidCodeFormat       = "INVALID_CODE_FORMAT"
	ErrInvalidCode             = "INVALID_CODE"
	ErrIncompleteRequiredField = "INCOMPLETE_REQUIRED_FIELD"
	ErrUnsavedChangesConflict  = "UNSAVED_CHANGES_CONFLICT"
)

// Navigation and session error codes.
const (
	ErrStepNotFound      = "STEP_NOT_FOUND"
	ErrNotAddressable    = "NOT_ADDRESSABLE"
	ErrFlowTerminal      = "FLOW_TERMINAL"
	ErrFlowClosed        = "FLOW_CLOSED"
	ErrJumpNotAllowed    = "JUMP_NOT_ALLOWED"
	ErrMethodRequired    = "METHOD_REQUIRED"
	ErrResendUnavailable = "RESEND_UNAVAILABLE"
	ErrAttemptsExhausted = "ATTEMPTS_EXHAUSTED"
	ErrSessionClosed     = "SESSION_CLOSED"
	ErrNoPendingExit     = "NO_PENDING_EXIT"
	ErrSubmitFailed      = "SUBMIT_FAILED"
	ErrInvalidCatalog    = "INVALID_CATALOG"
)

// FlowError is the error type returned by controller, guard and verification
// operations. It implements the error interface.
type FlowError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError returns a FlowError with the given code and message.
func NewError(code, msg string) *FlowError {
	return &FlowError{Code: code, Message: msg}
}

// Errorf returns a FlowError with a formatted message.
func Errorf(code, format string, args ...any) *FlowError {
	return &FlowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewValidationBlockedError is returned when forward navigation is attempted
// on a step whose predicate is not satisfied.
func NewValidationBlockedError(stepID string) *FlowError {
	return Errorf(ErrValidationBlocked, "step %q is not complete", stepID)
}

// NewIncompleteFieldsError wraps field-level failures from a section save or
// step advance.
func NewIncompleteFieldsError(details []FieldError) *FlowError {
	return &FlowError{
		Code:    ErrIncompleteRequiredField,
		Message: "One or more required fields are incomplete",
		Details: details,
	}
}

// NewInvalidCodeFormatError is returned when a verification code is not
// exactly six digits.
func NewInvalidCodeFormatError() *FlowError {
	return NewError(ErrInvalidCodeFormat, "Enter the 6-digit code we sent you")
}

// NewInvalidCodeError is returned when the verification service rejects a code.
func NewInvalidCodeError(attempts int) *FlowError {
	return Errorf(ErrInvalidCode, "the code was not accepted (attempt %d)", attempts)
}

// AsFlowError extracts a FlowError from err's chain.
func AsFlowError(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsCode reports whether err carries the given flow error code.
func IsCode(err error, code string) bool {
	fe, ok := AsFlowError(err)
	return ok && fe.Code == code
}

// CodeOf returns the flow error code of err, or "" when err is not a FlowError.
func CodeOf(err error) string {
	if fe, ok := AsFlowError(err); ok {
		return fe.Code
	}
	return ""
}
