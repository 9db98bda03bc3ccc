package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrNotFound              = errors.New("not found")
	ErrBetNotFound           = fmt.Errorf("bet %w", ErrNotFound)
	ErrOptionNotFound        = fmt.Errorf("option %w", ErrNotFound)
	ErrParticipationNotFound = fmt.Errorf("participation %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)

	ErrValidation           = errors.New("validation failed")
	ErrInvalidWinningOption = errors.New("invalid winning option")
	ErrInvalidOption        = errors.New("invalid option")

	ErrAlreadyParticipated    = errors.New("user has already participated in this bet")
	ErrBetAlreadyResolved     = errors.New("bet is already resolved")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBetNotAccepting        = fmt.Errorf("bet is not accepting participants: %w", ErrInvalidStateTransition)
	ErrDeadlinePassed         = errors.New("bet deadline has passed")

	ErrStorage = errors.New("storage error")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every invalid field of a request. It matches
// ErrValidation with errors.Is, plus Cause when one is set.
type ValidationError struct {
	Fields []FieldError
	Cause  error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Add records a field failure
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when at least one field failed
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{
		Fields: []FieldError{{Field: field, Message: message}},
		Cause:  cause,
	}
}

// storageError classifies an unexpected repository failure. Domain errors
// raised by repositories pass through untouched.
func storageError(op string, err error) error {
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStorage, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrForbidden, ErrNotFound, ErrValidation,
		ErrAlreadyParticipated, ErrBetAlreadyResolved, ErrInvalidStateTransition,
		ErrDeadlinePassed, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
