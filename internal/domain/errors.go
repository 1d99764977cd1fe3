package domain

import (
	"errors"
	"fmt"
)

// Error classes for adoption lifecycle operations. Callers classify with
// errors.Is and map to an HTTP status at the edge.
var (
	// ErrValidation marks bad or missing input.
	ErrValidation = errors.New("validation error")
	// ErrAuthorization marks an actor not permitted to perform the operation.
	ErrAuthorization = errors.New("authorization error")
	// ErrState marks an operation invalid for the entity's current lifecycle state.
	ErrState = errors.New("state error")
	// ErrNotFound marks a missing referenced entity.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks a backend I/O failure the caller may retry.
	ErrTransient = errors.New("transient error")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Authorizationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Transientf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransient, fmt.Sprintf(format, args...))
}
