// Package errors provides standardized error types and helpers for the upfkit codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrFormat indicates a structurally malformed document (missing or
	// unterminated tag, short positional block).
	ErrFormat = errors.New("malformed document")
	// ErrConversion indicates a field that could not be converted to its
	// required type.
	ErrConversion = errors.New("type conversion failed")
	// ErrMissingData indicates a derived-format operation was requested
	// without the prerequisite data being present.
	ErrMissingData = errors.New("missing data")
	// ErrUnsupported indicates an unsupported operation or format.
	ErrUnsupported = errors.New("unsupported")
)

// FormatError represents a structural parse failure with context.
// Parsing is fail-fast: a FormatError means no partial result was produced.
type FormatError struct {
	Format string // Format being parsed (e.g., "UPF v1", "ONCV input")
	Detail string // What was missing or malformed (e.g., "</PP_MESH> not found")
	Err    error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("malformed %s: %s", e.Format, e.Detail)
	}
	return fmt.Sprintf("malformed document: %s", e.Detail)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// ConversionError represents a field whose text could not be converted to
// the type the format requires.
type ConversionError struct {
	Field string // Field name (e.g., "z_valence")
	Value string // Offending token
	Err   error  // Underlying error, if any
}

func (e *ConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot convert %s value %q", e.Field, e.Value)
	}
	return fmt.Sprintf("cannot convert value %q", e.Value)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConversion, e.Err}
	}
	return []error{ErrConversion}
}

// MissingDataError represents a domain precondition failure: a derived
// format was requested from a document that lacks the prerequisite block.
type MissingDataError struct {
	Operation string // Operation that was attempted (e.g., "dat rendering")
	Want      string // Data that was required (e.g., "pswfc wavefunctions")
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s requires %s, which is not present", e.Operation, e.Want)
}

func (e *MissingDataError) Unwrap() error {
	return ErrMissingData
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
