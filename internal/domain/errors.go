package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity with the same unique key already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSeedDataExists indicates that seeding was refused because the catalog is not empty.
	ErrSeedDataExists = errors.New("catalog already contains data")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError provides details about a duplicate entity.
type AlreadyExistsError struct {
	Entity string
	Field  string
	Value  string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     fmt.Sprintf("%d", id),
	}
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(entity, field, value string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Entity: entity,
		Field:  field,
		Value:  value,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewMissingCategoryError reports a book referencing a category that does not exist.
func NewMissingCategoryError(categoryID int64) *ValidationError {
	return NewValidationError("category_id", fmt.Sprintf("category with ID %d does not exist", categoryID))
}
