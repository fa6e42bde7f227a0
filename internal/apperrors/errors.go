package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller's role does not allow the requested action.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientFunds indicates that a debit, sale, cession or replenishment exceeds the available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidOperation indicates a disallowed mutation: setting a reconciled pool directly,
// skipping an approval stage, or acting on an entity that is not in the expected state.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrInvalidSelection indicates that no funding source was chosen for the requested funding currency.
var ErrInvalidSelection = errors.New("invalid selection")

// ErrInternal indicates an unexpected failure in a dependency.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
