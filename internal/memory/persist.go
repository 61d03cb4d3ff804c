package memory

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Index blob format: magic, format version, vector dimension, vector
// count, then count*dimension big-endian float32 values. The record
// metadata lives in a separate JSON table; the two artifacts are only
// valid together.
const (
	indexMagic   = "RLIX"
	indexVersion = uint32(1)
)

// SaveToFiles persists the vector index blob and the metadata table.
// Parent directories are created as needed. The store is single-writer:
// concurrent runs must serialize on these files.
func (s *Store) SaveToFiles(indexPath, metadataPath string) error {
	if s.corrupt {
		return fmt.Errorf("%w: refusing save", ErrCorruptStore)
	}

	for _, path := range []string{indexPath, metadataPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", path, err)
			}
		}
	}

	if err := os.WriteFile(indexPath, s.encodeIndex(), 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	metadata, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metadataPath, metadata, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// LoadFromFiles rehydrates the store from the index blob and the metadata
// table. The artifacts only exist as a pair: both absent is a fresh store
// (os.ErrNotExist), exactly one absent marks the store corrupt so a later
// save cannot clobber the survivor. A record-count disagreement between
// the two likewise marks the store corrupt and every subsequent operation
// fails with ErrCorruptStore: a mismatched index silently pairs queries
// with the wrong records, which is worse than serving nothing.
func (s *Store) LoadFromFiles(indexPath, metadataPath string) error {
	indexData, indexErr := os.ReadFile(indexPath)
	metadataData, metadataErr := os.ReadFile(metadataPath)

	indexMissing := errors.Is(indexErr, os.ErrNotExist)
	metadataMissing := errors.Is(metadataErr, os.ErrNotExist)
	switch {
	case indexMissing && metadataMissing:
		return fmt.Errorf("no memory artifacts at %s: %w", indexPath, os.ErrNotExist)
	case indexMissing:
		s.corrupt = true
		return fmt.Errorf("%w: metadata table %s exists but index %s is missing", ErrCorruptStore, metadataPath, indexPath)
	case metadataMissing:
		s.corrupt = true
		return fmt.Errorf("%w: index %s exists but metadata table %s is missing", ErrCorruptStore, indexPath, metadataPath)
	}
	if indexErr != nil {
		return fmt.Errorf("failed to read index: %w", indexErr)
	}
	if metadataErr != nil {
		return fmt.Errorf("failed to read metadata: %w", metadataErr)
	}

	vectors, err := s.decodeIndex(indexData)
	if err != nil {
		s.corrupt = true
		return err
	}

	var records []Record
	if err := json.Unmarshal(metadataData, &records); err != nil {
		s.corrupt = true
		return fmt.Errorf("%w: unreadable metadata table: %v", ErrCorruptStore, err)
	}

	if len(vectors) != len(records) {
		s.corrupt = true
		return fmt.Errorf("%w: index has %d vectors, metadata has %d records",
			ErrCorruptStore, len(vectors), len(records))
	}

	for i := range records {
		records[i].Embedding = vectors[i]
	}

	s.records = records
	s.vectors = vectors
	s.corrupt = false
	return nil
}

func (s *Store) encodeIndex() []byte {
	buf := make([]byte, 0, 16+len(s.vectors)*s.dimension*4)
	buf = append(buf, indexMagic...)
	buf = binary.BigEndian.AppendUint32(buf, indexVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.dimension))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.vectors)))

	for _, vector := range s.vectors {
		for _, value := range vector {
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(value))
		}
	}
	return buf
}

func (s *Store) decodeIndex(data []byte) ([][]float32, error) {
	if len(data) < 16 || string(data[:4]) != indexMagic {
		return nil, fmt.Errorf("%w: not a vector index file", ErrCorruptStore)
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != indexVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", ErrCorruptStore, version)
	}
	dimension := int(binary.BigEndian.Uint32(data[8:12]))
	count := int(binary.BigEndian.Uint32(data[12:16]))

	if dimension != s.dimension {
		return nil, fmt.Errorf("%w: index dimension %d, store expects %d", ErrCorruptStore, dimension, s.dimension)
	}
	if len(data) != 16+count*dimension*4 {
		return nil, fmt.Errorf("%w: truncated index data", ErrCorruptStore)
	}

	vectors := make([][]float32, count)
	offset := 16
	for i := 0; i < count; i++ {
		vector := make([]float32, dimension)
		for j := 0; j < dimension; j++ {
			vector[j] = math.Float32frombits(binary.BigEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}
		vectors[i] = vector
	}
	return vectors, nil
}
