package session

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("session not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNoActiveSubscription = errors.New("member has no active subscription")
	ErrDuplicateTrialMember = errors.New("member already has session history")
)

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
