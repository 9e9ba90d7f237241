package services

import (
	"errors"
	"fmt"

	"food-ordering-api/statemachine"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("requested resource not found")
	ErrForbidden          = errors.New("user does not have permission to access this resource")
	ErrConflict           = errors.New("resource conflict")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidTransition is shared with the state machine so errors.Is works across packages.
	ErrInvalidTransition = statemachine.ErrInvalidTransition
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
