/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Order", "Order:o1_h")

	expected := `Order with key "Order:o1_h" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("class", "Order")

	expected := `class with key "Order" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "Name",
			message:  "must not contain ':'",
			expected: `validation failed for field "Name": must not contain ':'`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "class name is required",
			expected: "validation failed: class name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	cause := errors.New("parsing time \"soon\"")
	err := NewFormatError("created_at", "date", "soon", cause)

	expected := `field "created_at": cannot coerce soon to date: parsing time "soon"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsFormatError(err) {
		t.Error("IsFormatError should return true for FormatError")
	}

	if !errors.Is(err, cause) {
		t.Error("FormatError should unwrap to its cause")
	}
}

func TestConnectionError(t *testing.T) {
	err := NewConnectionError("localhost:6379", io.EOF)

	if err.Error() != "connect to localhost:6379: EOF" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsConnectionError(err) {
		t.Error("IsConnectionError should return true for ConnectionError")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("ConnectionError should unwrap to its cause")
	}
}

func TestUnknownClassError(t *testing.T) {
	err := NewUnknownClassError("Invoice")

	if err.Error() != `no class registered under name "Invoice"` {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsUnknownClass(err) {
		t.Error("IsUnknownClass should return true for UnknownClassError")
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("Order", "o1")
	wrapped := fmt.Errorf("lookup failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}

	format := fmt.Errorf("get: %w", NewFormatError("total", "number", "x", errors.New("bad")))
	if !IsFormatError(format) {
		t.Error("IsFormatError should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrFormat,
		ErrConnection,
		ErrUnknownClass,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
