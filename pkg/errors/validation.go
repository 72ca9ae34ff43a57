package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxNameLength bounds catalog names (layouts, models, variants, nodes).
const maxNameLength = 128

// ValidateName validates a catalog entry name.
//
// Names are used as map keys and persisted verbatim, so the rules are
// conservative:
//   - No empty names
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 128 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidName, "%s name %q has surrounding whitespace", kind, name)
	}

	return nil
}

// ValidatePositive validates that a dimension is a finite number greater than zero.
func ValidatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidValue, "%s must be finite, got %v", field, v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidValue, "%s must be greater than zero, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative validates that a value is a finite number not below zero.
func ValidateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidValue, "%s must be finite, got %v", field, v)
	}
	if v < 0 {
		return New(ErrCodeInvalidValue, "%s cannot be negative, got %v", field, v)
	}
	return nil
}

// ValidateRange validates that min <= v <= max.
func ValidateRange(field string, v, min, max float64) error {
	if math.IsNaN(v) {
		return New(ErrCodeInvalidValue, "%s must be a number", field)
	}
	if v < min || v > max {
		return New(ErrCodeInvalidValue, "%s must be within [%v, %v], got %v", field, min, max, v)
	}
	return nil
}
