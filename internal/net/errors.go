package net

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned by Train for a batch with no samples.
var ErrEmptyInput = errors.New("training data is empty")

// Validation error kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrMissingField = errors.New("missing field")
	ErrShape        = errors.New("wrong shape")
	ErrRange        = errors.New("out of range")
	ErrType         = errors.New("not a number")
)

// ValidationError describes malformed input. Sample is the 0-based position
// in the batch, or -1 for a single prediction input.
type ValidationError struct {
	Sample int
	Field  string
	Kind   error
	Value  any
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Sample < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("sample %d: %s: %s", e.Sample, e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// MissingField reports an absent field.
func MissingField(sample int, field string) *ValidationError {
	return &ValidationError{
		Sample: sample,
		Field:  field,
		Kind:   ErrMissingField,
		Detail: fmt.Sprintf("missing required field '%s'", field),
	}
}

// ShapeError reports a pixel vector whose length is not InputSize.
func ShapeError(sample int, field string, got int) *ValidationError {
	return &ValidationError{
		Sample: sample,
		Field:  field,
		Kind:   ErrShape,
		Value:  got,
		Detail: fmt.Sprintf("expected %d pixels, got %d", InputSize, got),
	}
}

// RangeError reports a label that is not an integer in 0-9.
func RangeError(sample int, value any) *ValidationError {
	return &ValidationError{
		Sample: sample,
		Field:  "label",
		Kind:   ErrRange,
		Value:  value,
		Detail: fmt.Sprintf("label must be an integer between 0-%d, got %v", Classes-1, value),
	}
}

// TypeError reports a pixel that cannot be used as a real number.
func TypeError(sample int, field string, pixel int, value any) *ValidationError {
	return &ValidationError{
		Sample: sample,
		Field:  field,
		Kind:   ErrType,
		Value:  value,
		Detail: fmt.Sprintf("pixel %d: invalid value '%v'", pixel, value),
	}
}
