package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum header size
	MaxVectorCount   = 64               // Updaters keep a handful of vectors
	MaxVectorNameLen = 256
)

// ValidateVectorName rejects empty, oversized or path-like names.
func ValidateVectorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Kind: ErrInvalidVectorName, Details: "empty name"}
	case len(name) > MaxVectorNameLen:
		return &ValidationError{
			Kind:    ErrInvalidVectorName,
			Vector:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxVectorNameLen),
		}
	case strings.ContainsAny(name, "/\\\x00") || strings.Contains(name, ".."):
		return &ValidationError{
			Kind:    ErrInvalidVectorName,
			Vector:  name,
			Details: "contains a path separator, '..' or a null byte",
		}
	}
	return nil
}

// ValidateVectorOffsets checks for overlapping offsets and out-of-bounds
// regions. A malformed file must never make the reader index past the data
// section.
func ValidateVectorOffsets(vectors []VectorMeta, dataSize int64) error {
	if len(vectors) > MaxVectorCount {
		return &ValidationError{
			Kind:    ErrTooManyVectors,
			Details: fmt.Sprintf("got %d, max %d", len(vectors), MaxVectorCount),
		}
	}

	sorted := make([]VectorMeta, len(vectors))
	copy(sorted, vectors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, v := range sorted {
		if v.Offset < 0 || v.Size < 0 || v.Len < 0 {
			return &ValidationError{
				Kind:    ErrNegativeOffset,
				Vector:  v.Name,
				Details: fmt.Sprintf("offset=%d, size=%d, len=%d", v.Offset, v.Size, v.Len),
			}
		}
		if int64(v.Len) > dataSize/bytesPerFloat32 {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Vector:  v.Name,
				Details: fmt.Sprintf("%d float32 values exceed data_size %d", v.Len, dataSize),
			}
		}
		if v.Size != int64(v.Len)*bytesPerFloat32 {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Vector:  v.Name,
				Details: fmt.Sprintf("size %d does not hold %d float32 values", v.Size, v.Len),
			}
		}
		if v.Offset > dataSize-v.Size {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Vector:  v.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", v.Offset, v.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if v.Offset+v.Size > next.Offset {
				return &ValidationError{
					Kind:    ErrOffsetOverlap,
					Vector:  v.Name,
					Vector2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						v.Offset, v.Offset+v.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateHeader checks the header against the size of the data section.
func ValidateHeader(h *Header, dataSize int64) error {
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, h.FormatVersion, FormatVersion)
	}
	seen := make(map[string]bool, len(h.Vectors))
	for _, v := range h.Vectors {
		if err := ValidateVectorName(v.Name); err != nil {
			return err
		}
		if seen[v.Name] {
			return &ValidationError{Kind: ErrInvalidVectorName, Vector: v.Name, Details: "duplicate name"}
		}
		seen[v.Name] = true
		if v.DType != DTypeFloat32 {
			return fmt.Errorf("%w: vector %q has dtype %q", ErrUnsupportedDType, v.Name, v.DType)
		}
	}
	return ValidateVectorOffsets(h.Vectors, dataSize)
}
