// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("%w")
// and classify with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidTheme = errors.New("invalid or disabled theme")
	ErrInvalidPhoto = errors.New("invalid photo")
	ErrProcessing   = errors.New("failed to process image")
	ErrComposition  = errors.New("malformed story document")
	ErrRemote       = errors.New("remote generation failed")
	ErrBusy         = errors.New("a generation is already in progress")
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level validation failures.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// FromValidation converts ozzo-validation errors into a *ValidationError.
// Nested struct errors are flattened into dotted field names. Any other
// error (including nil) is returned unchanged.
func FromValidation(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	flatten("", verrs, out)
	return out
}

func flatten(prefix string, verrs validation.Errors, out *ValidationError) {
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(verrs[k], &nested) {
			flatten(name, nested, out)
			continue
		}
		out.Errors = append(out.Errors, FieldError{Field: name, Message: verrs[k].Error()})
	}
}
