package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersionV2   = 2    // v2: With SHA-256 checksum
	HeaderAlignment   = 64   // Align tensor data to 64 bytes
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
)

// DTypeFloat64 is the only element type stored by this package.
const DTypeFloat64 = "float64"

// float64Size is the encoded size of one element.
const float64Size = 8

// Flags for the .born format.
const (
	FlagHasCheckpoint uint32 = 1 << 1 // bit 1: training checkpoint metadata included
	FlagHasMetadata   uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .born format
	LibraryVersion string            `json:"library_version"`      // Version of the library that wrote the file
	ModelType      string            `json:"model_type"`           // Type of model (e.g., "Network")
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`              // Tensor metadata
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Checkpoint metadata (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	IsCheckpoint bool           `json:"is_checkpoint"` // Whether this is a checkpoint file
	RunID        string         `json:"run_id"`        // Identifier of the training run
	Epoch        int            `json:"epoch"`         // Training epoch number
	Loss         float64        `json:"loss"`          // Loss value at checkpoint
	Optimizer    string         `json:"optimizer"`     // Optimizer type ("SGD")
	LearningRate float64        `json:"learning_rate"` // Step size in use when saved
	TrainingMeta map[string]any `json:"training_meta"` // Additional training metadata
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "0.weight")
	DType  string `json:"dtype"`  // Data type, always "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// Tensor is a named float64 vector with a logical row-major shape.
type Tensor struct {
	Name  string
	Shape []int
	Data  []float64
}

// numElements returns the product of shape.
func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// alignedOffset returns the start of the data section for a JSON header of
// headerSize bytes.
func alignedOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSizeV2) + headerSize
	return pos + (HeaderAlignment-(pos%HeaderAlignment))%HeaderAlignment
}
