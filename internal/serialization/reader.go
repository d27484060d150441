package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// ReaderOptions configures how .born data is read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// DefaultReaderOptions returns strict validation with checksum checking.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{ValidationLevel: ValidationStrict}
}

// Read decodes a .born v2 stream. Tensors are returned in file order.
//
//nolint:gocyclo,cyclop // Sequential format parsing
func Read(src io.Reader, opts ReaderOptions) ([]Tensor, Header, error) {
	fixedHeader := make([]byte, FixedHeaderSizeV2)
	if _, err := io.ReadFull(src, fixedHeader); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return nil, Header{}, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(fixedHeader[4:8])
	if version != FormatVersionV2 {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersionV2)
	}

	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	var stored [32]byte
	copy(stored[:], fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(src, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header JSON: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	headerEnd := int64(FixedHeaderSizeV2) + int64(headerSize)
	if padding := alignedOffset(int64(headerSize)) - headerEnd; padding > 0 {
		if _, err := io.CopyN(io.Discard, src, padding); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read padding: %w", err)
		}
	}

	//nolint:gosec // G115: a data size beyond int64 fails the length check below
	data, err := io.ReadAll(io.LimitReader(src, int64(dataSize)))
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if uint64(len(data)) != dataSize {
		return nil, Header{}, fmt.Errorf("%w: data section has %d bytes, header declares %d",
			ErrOutOfBounds, len(data), dataSize)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, Header{}, err
		}
	}

	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, Header{}, fmt.Errorf("validation failed: %w", err)
	}

	tensors := make([]Tensor, 0, len(header.Tensors))
	for _, meta := range header.Tensors {
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, Header{}, fmt.Errorf("%w: %s", ErrOutOfBounds, meta.Name)
		}
		raw := data[meta.Offset : meta.Offset+meta.Size]
		values := make([]float64, len(raw)/float64Size)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
		}
		tensors = append(tensors, Tensor{
			Name:  meta.Name,
			Shape: append([]int(nil), meta.Shape...),
			Data:  values,
		})
	}

	return tensors, header, nil
}

// ReadFile reads a .born file with default options.
func ReadFile(path string) ([]Tensor, Header, error) {
	return ReadFileWithOptions(path, DefaultReaderOptions())
}

// ReadFileWithOptions reads a .born file with custom options.
func ReadFileWithOptions(path string, opts ReaderOptions) ([]Tensor, Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tensors, header, err := Read(bufio.NewReader(file), opts)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return tensors, header, nil
}

// Lookup returns the tensor called name.
func Lookup(tensors []Tensor, name string) (Tensor, error) {
	for _, t := range tensors {
		if t.Name == name {
			return t, nil
		}
	}
	return Tensor{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}
