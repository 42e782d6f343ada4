package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/networkable/errors"
)

// FieldError is a validation failure for one config key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors.
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any error was recorded.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err returns an INVALID_CONFIG error listing every recorded field error, or
// nil when there are none.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.InvalidConfig(strings.Join(messages, "; ")).
		WithDetail("fields", slices.Clone(v.errors))
}

// Merge appends the field errors carried by err, if it is an INVALID_CONFIG
// error from this package. Any other non-nil error is recorded under field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	if e, ok := errors.AsError(err); ok && e.Code == errors.ErrCodeInvalidConfig {
		if fields, ok := e.Details["fields"].([]FieldError); ok {
			for _, f := range fields {
				name := f.Field
				if field != "" {
					name = field + "." + name
				}
				v.AddError(name, f.Message)
			}
			return v
		}
	}
	v.AddError(field, err.Error())
	return v
}

// Custom records message for field when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// OneOf checks that a non-empty value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}
