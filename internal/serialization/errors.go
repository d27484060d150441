package serialization

import (
	"errors"
	"fmt"
	"strings"
)

// Container-level errors.
var (
	ErrInvalidMagic       = errors.New("not a .born file")
	ErrUnsupportedVersion = errors.New("unsupported .born version")
	ErrHeaderTooLarge     = errors.New("JSON header too large")
	ErrChecksumMismatch   = errors.New("data checksum mismatch")
)

// Tensor table errors.
var (
	ErrTooManyTensors    = errors.New("too many tensors")
	ErrInvalidTensorName = errors.New("invalid tensor name")
	ErrTensorNameTooLong = errors.New("tensor name too long")
	ErrDuplicateTensor   = errors.New("duplicate tensor")
	ErrInvalidShape      = errors.New("shape does not match element count")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
	ErrNegativeOffset    = errors.New("negative tensor offset or size")
	ErrOutOfBounds       = errors.New("tensor outside data section")
	ErrOffsetOverlap     = errors.New("overlapping tensors")
	ErrTensorNotFound    = errors.New("tensor not found")
)

// ValidationError reports which tensor failed a check. errors.Is matches
// it against its sentinel Err.
type ValidationError struct {
	Err     error  // sentinel describing the failed check
	Tensor  string // offending tensor, if any
	Other   string // second tensor of an overlap
	Details string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString("validation failed")
	}
	switch {
	case e.Other != "":
		fmt.Fprintf(&sb, ": %q and %q", e.Tensor, e.Other)
	case e.Tensor != "":
		fmt.Fprintf(&sb, ": %q", e.Tensor)
	}
	if e.Details != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Details)
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
