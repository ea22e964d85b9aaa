package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// ReadState reads a state file from r, validating the header, every vector
// region and the data checksum.
func ReadState(r io.Reader) (*State, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, string(magic), MagicBytes)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector data: %w", err)
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, err
	}
	if err := ValidateChecksum(data, header.Checksum); err != nil {
		return nil, err
	}

	vectors := make(map[string][]float32, len(header.Vectors))
	for _, meta := range header.Vectors {
		vec := make([]float32, meta.Len)
		region := data[meta.Offset : meta.Offset+meta.Size]
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(region[i*bytesPerFloat32:]))
		}
		vectors[meta.Name] = vec
	}

	return &State{
		Updater:   header.Updater,
		Hyper:     header.Hyper,
		Vectors:   vectors,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}, nil
}

// LoadState reads the state file at path.
func LoadState(path string) (*State, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadState(f)
}
