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
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when registering something that is already registered
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrFormat is returned when a stored value cannot be coerced to its declared format
	ErrFormat = errors.New("format coercion failed")

	// ErrConnection is returned when no store connection could be acquired
	ErrConnection = errors.New("store connection failed")

	// ErrUnknownClass is returned when a stored class name has no registered class
	ErrUnknownClass = errors.New("unknown class")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when something is already registered
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
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

// FormatError reports a value that could not be coerced to the format declared for its field.
type FormatError struct {
	Field  string
	Format string
	Value  any
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %v to %s: %v", e.Field, e.Value, e.Format, e.Err)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ConnectionError reports that neither the pool nor the fallback connection could be used.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UnknownClassError is returned when a stored class name is not in the class table
type UnknownClassError struct {
	Name string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("no class registered under name %q", e.Name)
}

func (e *UnknownClassError) Is(target error) bool {
	return target == ErrUnknownClass
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewFormatError creates a new FormatError
func NewFormatError(field, format string, value any, err error) error {
	return &FormatError{Field: field, Format: format, Value: value, Err: err}
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(addr string, err error) error {
	return &ConnectionError{Addr: addr, Err: err}
}

// NewUnknownClassError creates a new UnknownClassError
func NewUnknownClassError(name string) error {
	return &UnknownClassError{Name: name}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFormatError checks if an error is a format coercion error
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsUnknownClass checks if an error is an unknown class error
func IsUnknownClass(err error) bool {
	return errors.Is(err, ErrUnknownClass)
}
