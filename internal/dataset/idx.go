package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// IDXOptions controls LoadIDX.
type IDXOptions struct {
	NumClasses int     // Width of the one-hot target
	Scale      float64 // Multiplier applied to every pixel (0 means 1)
	MaxRows    int     // Stop after this many examples (0 means no limit)
}

// LoadIDX loads an image/label pair in the big-endian IDX layout used by
// the MNIST distribution files:
//
//	images: magic 2051, count, rows, cols, then rows*cols bytes per image
//	labels: magic 2049, count, then one byte per label
//
// Images whose label is outside [0, NumClasses) are skipped.
func LoadIDX(imagesPath, labelsPath string, opts IDXOptions, cfg Config) (*Dataset, error) {
	//nolint:gosec // G304: dataset path is supplied by the caller
	images, err := os.Open(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open images: %w", err)
	}
	defer images.Close()

	//nolint:gosec // G304: dataset path is supplied by the caller
	labels, err := os.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer labels.Close()

	return ReadIDX(bufio.NewReader(images), bufio.NewReader(labels), opts, cfg)
}

// ReadIDX is LoadIDX over arbitrary readers.
func ReadIDX(images, labels io.Reader, opts IDXOptions, cfg Config) (*Dataset, error) {
	if opts.NumClasses <= 0 {
		return nil, fmt.Errorf("NumClasses must be positive, got %d", opts.NumClasses)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	var imgHeader struct{ Magic, Count, Rows, Cols uint32 }
	if err := binary.Read(images, binary.BigEndian, &imgHeader); err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if imgHeader.Magic != idxImagesMagic {
		return nil, fmt.Errorf("invalid image magic number: got %d, want %d", imgHeader.Magic, idxImagesMagic)
	}

	var lblHeader struct{ Magic, Count uint32 }
	if err := binary.Read(labels, binary.BigEndian, &lblHeader); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if lblHeader.Magic != idxLabelsMagic {
		return nil, fmt.Errorf("invalid label magic number: got %d, want %d", lblHeader.Magic, idxLabelsMagic)
	}
	if imgHeader.Count != lblHeader.Count {
		return nil, fmt.Errorf("image count %d does not match label count %d", imgHeader.Count, lblHeader.Count)
	}

	pixels := make([]byte, int(imgHeader.Rows)*int(imgHeader.Cols))
	label := make([]byte, 1)
	ds := &Dataset{Config: cfg}

	for i := range int(imgHeader.Count) {
		if _, err := io.ReadFull(images, pixels); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		if _, err := io.ReadFull(labels, label); err != nil {
			return nil, fmt.Errorf("failed to read label %d: %w", i, err)
		}

		target, err := OneHot(int(label[0]), opts.NumClasses)
		if err != nil {
			continue
		}
		input := make([]float64, len(pixels))
		for j, p := range pixels {
			input[j] = float64(p) * scale
		}

		ds.Examples = append(ds.Examples, Example{Input: input, Target: target})
		if opts.MaxRows > 0 && len(ds.Examples) >= opts.MaxRows {
			break
		}
	}

	return ds, nil
}
