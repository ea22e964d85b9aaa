package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// WriteState writes st to w.
//
// Vectors are written in alphabetical order by name.
func WriteState(w io.Writer, st *State) error {
	names := make([]string, 0, len(st.Vectors))
	for name := range st.Vectors {
		if err := ValidateVectorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// Encode the data section first: the header carries its checksum.
	var size int64
	for _, name := range names {
		size += int64(len(st.Vectors[name])) * bytesPerFloat32
	}
	data := make([]byte, size)
	metas := make([]VectorMeta, 0, len(names))
	var offset int64
	for _, name := range names {
		vec := st.Vectors[name]
		for i, x := range vec {
			binary.LittleEndian.PutUint32(data[offset+int64(i)*bytesPerFloat32:], math.Float32bits(x))
		}
		n := int64(len(vec)) * bytesPerFloat32
		metas = append(metas, VectorMeta{
			Name:   name,
			DType:  DTypeFloat32,
			Len:    len(vec),
			Offset: offset,
			Size:   n,
		})
		offset += n
	}

	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	header := Header{
		FormatVersion: FormatVersion,
		Updater:       st.Updater,
		CreatedAt:     createdAt,
		Hyper:         st.Hyper,
		Vectors:       metas,
		Checksum:      ComputeChecksum(data),
		Metadata:      st.Metadata,
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("failed to write vector data: %w", err)
	}
	return bw.Flush()
}

// SaveState writes st to path. The file is written to a temporary sibling
// and renamed into place so a crash never leaves a truncated state file.
func SaveState(path string, st *State) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteState(tmp, st); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}
