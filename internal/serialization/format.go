package serialization

import (
	"time"

	"github.com/born-ml/updater/internal/hyper"
)

// Format constants.
const (
	MagicBytes      = "BUPD"
	FormatVersion   = 1
	FixedHeaderSize = 4 + 4 + 8 // magic + version + header size
	DTypeFloat32    = "float32"
	bytesPerFloat32 = 4
)

// Header represents the JSON header of a state file.
type Header struct {
	FormatVersion int                   `json:"format_version"`
	Updater       string                `json:"updater"`         // Updater kind, e.g. "nesterov"
	CreatedAt     time.Time             `json:"created_at"`      // When the file was written
	Hyper         hyper.HyperParameters `json:"hyperparameters"` // Hyperparameters the state was trained with
	Vectors       []VectorMeta          `json:"vectors"`         // State vector metadata, sorted by name
	Checksum      string                `json:"checksum"`        // Hex SHA-256 of the data section
	Metadata      map[string]string     `json:"metadata,omitempty"`
}

// VectorMeta describes one state vector.
type VectorMeta struct {
	Name   string `json:"name"`   // e.g. "velocity"
	DType  string `json:"dtype"`  // Always "float32"
	Len    int    `json:"len"`    // Number of elements
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// State is the in-memory form of a state file.
type State struct {
	Updater   string
	Hyper     hyper.HyperParameters
	Vectors   map[string][]float32
	Metadata  map[string]string
	CreatedAt time.Time
}
