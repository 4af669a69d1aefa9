package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError indicates malformed input such as a missing field or a bad ID.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a missing project or hackathon record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidateProjectID checks that id is a well-formed project ID.
func ValidateProjectID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "project ID is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: "id", Message: "invalid project ID format", Cause: err}
	}
	return nil
}
