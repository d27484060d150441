package nn

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/born-ml/ffnet/internal/serialization"
	"github.com/google/uuid"
)

// Header metadata keys written by Save and SaveCheckpoint.
const (
	metaTopology = "topology"
	metaLoss     = "loss"
)

// Checkpoint is a snapshot of the training state stored alongside the
// parameters.
//
// Example:
//
//	ckpt := &nn.Checkpoint{Epoch: 100, Loss: loss, LearningRate: 0.01}
//	if err := net.SaveCheckpoint("xor.born", ckpt); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ckpt.RunID) // assigned on first save
//
// To resume training:
//
//	ckpt, err := net.LoadCheckpoint("xor.born")
//	startEpoch := ckpt.Epoch + 1
type Checkpoint struct {
	RunID        string         // Training run identifier, generated if empty
	Epoch        int            // Training epoch number
	Loss         float64        // Loss value at this checkpoint
	LearningRate float64        // Step size in use
	Metadata     map[string]any // Additional training metadata
	CreatedAt    time.Time      // When the checkpoint was written
}

// StateDict returns a copy of every parameter keyed "<layer>.<name>",
// e.g. "0.weight" or "3.alpha".
func (n *Network) StateDict() map[string][]float64 {
	state := make(map[string][]float64)
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			state[paramKey(i, p)] = slices.Clone(p.data)
		}
	}
	return state
}

// LoadStateDict copies values into the network parameters.
//
// Every parameter must be present with the right length; nothing is
// written unless all of them are. Extra keys are an error.
func (n *Network) LoadStateDict(state map[string][]float64) error {
	if !n.built {
		return ErrNotBuilt
	}

	type target struct {
		p   *Parameter
		src []float64
	}
	var targets []target
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			key := paramKey(i, p)
			src, ok := state[key]
			if !ok {
				return fmt.Errorf("%w: %s", ErrMissingParameter, key)
			}
			if len(src) != p.Len() {
				return fmt.Errorf("%w: %s has %d values, expected %d", ErrShapeMismatch, key, len(src), p.Len())
			}
			targets = append(targets, target{p: p, src: src})
		}
	}
	if len(state) != len(targets) {
		return fmt.Errorf("%w: state has %d entries, network has %d parameters", ErrShapeMismatch, len(state), len(targets))
	}

	for _, t := range targets {
		copy(t.p.data, t.src)
	}
	return nil
}

// Save writes the network parameters to a .born file.
func (n *Network) Save(path string) error {
	if !n.built {
		return ErrNotBuilt
	}
	if err := serialization.WriteFile(path, n.tensors(), n.header()); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}
	return nil
}

// Load reads parameters written by Save or SaveCheckpoint. The file must
// describe the same topology.
func (n *Network) Load(path string) error {
	_, err := n.load(path)
	return err
}

// SaveCheckpoint writes the parameters together with ckpt. An empty
// ckpt.RunID is replaced with a new random identifier, and CreatedAt is
// set to the time of writing.
func (n *Network) SaveCheckpoint(path string, ckpt *Checkpoint) error {
	if !n.built {
		return ErrNotBuilt
	}
	if ckpt.RunID == "" {
		ckpt.RunID = uuid.NewString()
	}
	ckpt.CreatedAt = time.Now().UTC()

	header := n.header()
	header.CreatedAt = ckpt.CreatedAt
	header.CheckpointMeta = &serialization.CheckpointMeta{
		IsCheckpoint: true,
		RunID:        ckpt.RunID,
		Epoch:        ckpt.Epoch,
		Loss:         ckpt.Loss,
		Optimizer:    "SGD",
		LearningRate: ckpt.LearningRate,
		TrainingMeta: ckpt.Metadata,
	}

	if err := serialization.WriteFile(path, n.tensors(), header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores the parameters from a checkpoint file and
// returns its training state.
func (n *Network) LoadCheckpoint(path string) (*Checkpoint, error) {
	header, err := n.load(path)
	if err != nil {
		return nil, err
	}

	meta := header.CheckpointMeta
	if meta == nil || !meta.IsCheckpoint {
		return nil, errors.New("file is not a checkpoint")
	}

	return &Checkpoint{
		RunID:        meta.RunID,
		Epoch:        meta.Epoch,
		Loss:         meta.Loss,
		LearningRate: meta.LearningRate,
		Metadata:     meta.TrainingMeta,
		CreatedAt:    header.CreatedAt,
	}, nil
}

func (n *Network) load(path string) (serialization.Header, error) {
	if !n.built {
		return serialization.Header{}, ErrNotBuilt
	}

	tensors, header, err := serialization.ReadFile(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to load network: %w", err)
	}

	if got, want := header.Metadata[metaTopology], n.Topology(); got != want {
		return serialization.Header{}, fmt.Errorf("%w: file topology %q, network topology %q", ErrShapeMismatch, got, want)
	}

	shapes := make(map[string][]int)
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			shapes[paramKey(i, p)] = p.shape
		}
	}

	state := make(map[string][]float64, len(tensors))
	for _, t := range tensors {
		if want, ok := shapes[t.Name]; ok && !slices.Equal(t.Shape, want) {
			return serialization.Header{}, fmt.Errorf("%w: %s has shape %v, expected %v", ErrShapeMismatch, t.Name, t.Shape, want)
		}
		state[t.Name] = t.Data
	}

	if err := n.LoadStateDict(state); err != nil {
		return serialization.Header{}, err
	}
	return header, nil
}

func (n *Network) tensors() []serialization.Tensor {
	var tensors []serialization.Tensor
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			tensors = append(tensors, serialization.Tensor{
				Name:  paramKey(i, p),
				Shape: p.Shape(),
				Data:  p.data,
			})
		}
	}
	return tensors
}

func (n *Network) header() serialization.Header {
	return serialization.Header{
		ModelType: "Network",
		Metadata: map[string]string{
			metaTopology: n.Topology(),
			metaLoss:     n.loss.Name,
		},
	}
}

func paramKey(layer int, p *Parameter) string {
	return fmt.Sprintf("%d.%s", layer, p.name)
}
