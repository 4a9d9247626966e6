package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrInactiveUser       = errors.New("user account is disabled")
	ErrEmailRequired      = errors.New("users must have an email address")
	ErrEmailExists        = errors.New("email already exists")
)

// ValidationError maps a field name to human readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BulkValidationError holds one field map per submitted element; elements
// without problems have an empty map.
type BulkValidationError struct {
	Items []map[string][]string
}

func (e *BulkValidationError) Error() string {
	failed := 0
	for _, item := range e.Items {
		if len(item) > 0 {
			failed++
		}
	}
	return fmt.Sprintf("validation failed for %d of %d items", failed, len(e.Items))
}
