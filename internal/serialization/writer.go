package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// LibraryVersion is recorded in every header written by this package.
const LibraryVersion = "0.1.0"

// Write encodes tensors in .born v2 format to dst.
//
// Tensors are stored in the order given. FormatVersion, LibraryVersion,
// CreatedAt and Tensors in header are filled in by Write.
func Write(dst io.Writer, tensors []Tensor, header Header) error {
	header.FormatVersion = FormatVersionV2
	header.LibraryVersion = LibraryVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Calculate tensor offsets
	var offset int64
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	seen := make(map[string]struct{}, len(tensors))
	for _, t := range tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTensor, t.Name)
		}
		seen[t.Name] = struct{}{}
		if numElements(t.Shape) != len(t.Data) {
			return fmt.Errorf("%w: %s has shape %v and %d values", ErrInvalidShape, t.Name, t.Shape, len(t.Data))
		}

		size := int64(len(t.Data)) * float64Size
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.Name,
			DType:  DTypeFloat64,
			Shape:  append([]int(nil), t.Shape...),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	// Encode all tensor data to compute checksum
	data := make([]byte, offset)
	pos := 0
	for _, t := range tensors {
		for _, v := range t.Data {
			binary.LittleEndian.PutUint64(data[pos:], math.Float64bits(v))
			pos += float64Size
		}
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixedHeader := make([]byte, FixedHeaderSizeV2)

	// 0x00-0x03: Magic bytes "BORN"
	copy(fixedHeader[0:4], MagicBytes)

	// 0x04-0x07: Version (2)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersionV2))

	// 0x08-0x0B: Flags
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasCheckpoint
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F: Reserved (0)

	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))

	// 0x18-0x1F: Data size
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(data)))

	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := dst.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := dst.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	headerEnd := int64(FixedHeaderSizeV2) + int64(len(headerJSON))
	if padding := alignedOffset(int64(len(headerJSON))) - headerEnd; padding > 0 {
		if _, err := dst.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile writes tensors to path, replacing any existing file.
func WriteFile(path string, tensors []Tensor, header Header) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	buf := bufio.NewWriter(file)
	if err := Write(buf, tensors, header); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}
