package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("vector offsets overlap")
	ErrOutOfBounds        = errors.New("vector extends beyond data section")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrTooManyVectors     = errors.New("too many vectors in file")
	ErrInvalidVectorName  = errors.New("invalid vector name")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrUnsupportedDType   = errors.New("unsupported dtype")
)

// ValidationError provides detailed information about validation failures.
// It unwraps to the matching sentinel error.
type ValidationError struct {
	Kind    error  // Sentinel describing the failure, e.g. ErrOffsetOverlap
	Vector  string // Primary vector name involved
	Vector2 string // Secondary vector name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Vector2 != "" {
		return fmt.Sprintf("%v: vectors %q and %q: %s", e.Kind, e.Vector, e.Vector2, e.Details)
	}
	if e.Vector != "" {
		return fmt.Sprintf("%v: vector %q: %s", e.Kind, e.Vector, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}
