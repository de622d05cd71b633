package lib

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is(err, lib.ErrXxx) to find out what kind of failure happened.
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrConnectionTimeout = errors.New("connection timed out")
	ErrConnectionRefused = errors.New("connection refused")
	ErrConnection        = errors.New("connection error")
	ErrMailboxNotFound   = errors.New("mailbox not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrValidation        = errors.New("invalid input")
	ErrTransportRefused  = errors.New("delivery refused")
	ErrSessionClosed     = errors.New("session already closed")
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrAuthentication, "AUTHENTICATION"},
	{ErrConnectionTimeout, "TIMEOUT"},
	{ErrConnectionRefused, "REFUSED"},
	{ErrMailboxNotFound, "MAILBOX_NOT_FOUND"},
	{ErrMessageNotFound, "MESSAGE_NOT_FOUND"},
	{ErrValidation, "VALIDATION"},
	{ErrTransportRefused, "TRANSPORT_REFUSED"},
	{ErrConnection, "CONNECTION"},
	{ErrSessionClosed, "CONNECTION"},
}

// Error is a classified failure carrying a message safe to show to the end user.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError creates a classified error. err is the low level cause and can be nil.
func NewError(kind error, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validationf creates a validation error from a formatted message.
func Validationf(format string, a ...any) *Error {
	return NewError(ErrValidation, fmt.Sprintf(format, a...), nil)
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// UserMessage returns the message of the outermost classified error, or the error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Message
	}
	return err.Error()
}

// KindOf returns a stable code for the kind of error, INTERNAL when the error was never classified.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kindCodes {
		if errors.Is(err, entry.kind) {
			return entry.code
		}
	}
	return "INTERNAL"
}
