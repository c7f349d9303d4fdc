package models

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors.
var (
	ErrUnknownPhase    = errors.New("unknown phase")
	ErrUnknownLanguage = errors.New("unknown language")
)

// ValidationError describes an invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field validation failures.
type ValidationErrors struct {
	Errors []ValidationError
}

// AddMessage records a validation failure for a field.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// Err returns nil when no failures were recorded.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
