package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrEmailExists = errors.New("email already exists")
var ErrUserNotFound = errors.New("user not found")

// ValidationError signals malformed or missing input. The reason is
// safe to surface to the caller verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies the entity kind and identifier that a
// lookup failed to resolve.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}
