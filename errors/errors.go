/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrConfiguration is matched by every model configuration fault
	ErrConfiguration = errors.New("invalid model configuration")

	// ErrMissingPrimaryKey is returned when a key set has no primary key
	ErrMissingPrimaryKey = errors.New("no primary key specified")

	// ErrMultiplePrimaryKeys is returned when a key set has more than one primary key
	ErrMultiplePrimaryKeys = errors.New("more than one primary key specified")

	// ErrDuplicateLabel is returned when two secondary keys of a key set share a label
	ErrDuplicateLabel = errors.New("secondary keys must have distinct labels")

	// ErrInvalidKey is returned when a declared key is not an exact query
	ErrInvalidKey = errors.New("keys must be exact queries")

	// ErrConflictingShadowKeys is returned when a model declares bounded and unbounded shadow keys
	ErrConflictingShadowKeys = errors.New("conflicting shadow key configuration")

	// ErrTooManyShadowKeys is returned when a bounded model declares too many shadow key sets
	ErrTooManyShadowKeys = errors.New("maximum number of shadow key sets exceeded")

	// ErrCannotConvert is returned when a value has no usable key conversion
	ErrCannotConvert = errors.New("cannot convert value to key")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by engines that reject removal of missing keys
	ErrNotFound = errors.New("record not found")
)

// ConfigurationError represents a structural fault in a model's key declarations
type ConfigurationError struct {
	Entity string
	Reason string
	Kind   error
}

func (e *ConfigurationError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration || target == e.Kind
}

// ShadowLimitError is returned when a model exceeds the bounded shadow key maximum
type ShadowLimitError struct {
	Entity string
	Count  int
	Max    int
}

func (e *ShadowLimitError) Error() string {
	return fmt.Sprintf("%s: maximum number of %d shadow key sets exceeded (got %d): reduce the number of shadow key sets, or implement UnsafeShadowKeysUnbounded instead of ShadowKeys",
		e.Entity, e.Max, e.Count)
}

func (e *ShadowLimitError) Is(target error) bool {
	return target == ErrConfiguration || target == ErrTooManyShadowKeys
}

// ConversionError represents a value that could not be turned into a key string
type ConversionError struct {
	Value any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert value of type %T to a key: supply a converter for the index", e.Value)
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrCannotConvert
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotFoundError represents a missing record
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record with key %q not found", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Helper functions for creating errors

// NewConfigurationError creates a new ConfigurationError of the given kind
func NewConfigurationError(entity string, kind error, reason string) error {
	return &ConfigurationError{Entity: entity, Kind: kind, Reason: reason}
}

// NewMissingPrimaryKeyError creates the fault raised for key sets without a primary key
func NewMissingPrimaryKeyError(entity string) error {
	return NewConfigurationError(entity, ErrMissingPrimaryKey, "")
}

// NewShadowLimitError creates a new ShadowLimitError
func NewShadowLimitError(entity string, count, max int) error {
	return &ShadowLimitError{Entity: entity, Count: count, Max: max}
}

// NewConversionError creates a new ConversionError
func NewConversionError(value any) error {
	return &ConversionError{Value: value}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(key string) error {
	return &NotFoundError{Key: key}
}

// IsConfiguration checks if an error is a model configuration fault
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConversion checks if an error is a key conversion fault
func IsConversion(err error) bool {
	return errors.Is(err, ErrCannotConvert)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
