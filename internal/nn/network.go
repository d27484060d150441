package nn

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/parallel"
	"gonum.org/v1/gonum/floats"
)

// Network errors.
var (
	ErrNotBuilt         = errors.New("network is not built")
	ErrAlreadyBuilt     = errors.New("network is already built")
	ErrEmptyNetwork     = errors.New("network has no layers")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrMissingParameter = errors.New("missing parameter")
)

// Network is an ordered sequence of layers trained with a single loss.
//
// Construction is two-phase: Add declares the topology, Build initializes
// every layer in order with the previous layer's output width (0 for the
// first) and the network's random source.
//
// Forward and TrainExample go through the layers' own workspaces and must
// not be called concurrently. Backprop and PredictBatch create private
// workspaces per worker.
//
// Example:
//
//	net := nn.NewNetwork(nn.WithLoss(nn.BCE), nn.WithSeed(1))
//	net.Add(nn.NewDense(2, nn.ReLU), nn.NewDense(10, nn.Tanh), nn.NewDense(1, nn.Sigmoid))
//	if err := net.Build(); err != nil {
//	    log.Fatal(err)
//	}
//	loss, err := net.Backprop(ds)
type Network struct {
	layers []Layer
	loss   Loss
	rng    *rand.Rand
	par    parallel.Config
	built  bool
}

// Option configures a Network.
type Option func(*Network)

// WithLoss selects the loss by name (see LossByName).
func WithLoss(name string) Option {
	return func(n *Network) {
		n.loss = LossByName(name)
	}
}

// WithSeed makes parameter initialization deterministic.
func WithSeed(seed uint64) Option {
	return func(n *Network) {
		n.rng = NewRand(seed)
	}
}

// WithRand sets the random source used by Build.
func WithRand(rng *rand.Rand) Option {
	return func(n *Network) {
		if rng != nil {
			n.rng = rng
		}
	}
}

// WithParallel sets the chunking used by PredictBatch.
func WithParallel(cfg parallel.Config) Option {
	return func(n *Network) {
		n.par = cfg
	}
}

// NewNetwork creates an empty network. The default loss is mean-squared
// error.
func NewNetwork(opts ...Option) *Network {
	n := &Network{
		loss: MSELoss(),
		par:  parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		n.rng = newRand()
	}
	return n
}

// NewSequential creates and builds a network from layers.
func NewSequential(loss string, seed uint64, layers ...Layer) (*Network, error) {
	n := NewNetwork(WithLoss(loss), WithSeed(seed))
	if err := n.Add(layers...); err != nil {
		return nil, err
	}
	if err := n.Build(); err != nil {
		return nil, err
	}
	return n, nil
}

// Add appends layers to the topology.
func (n *Network) Add(layers ...Layer) error {
	if n.built {
		return ErrAlreadyBuilt
	}
	n.layers = append(n.layers, layers...)
	return nil
}

// Build initializes every layer in topology order.
func (n *Network) Build() error {
	if n.built {
		return ErrAlreadyBuilt
	}
	if len(n.layers) == 0 {
		return ErrEmptyNetwork
	}

	prev := 0
	for _, l := range n.layers {
		l.Init(prev, n.rng)
		prev = l.Size()
	}
	n.built = true
	return nil
}

// Built reports whether Build has completed.
func (n *Network) Built() bool {
	return n.built
}

// Layers returns the layers in topology order.
func (n *Network) Layers() []Layer {
	return append([]Layer(nil), n.layers...)
}

// Loss returns the selected loss.
func (n *Network) Loss() Loss {
	return n.loss
}

// Parameters returns every trainable parameter in topology order.
func (n *Network) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range n.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// NumParameters returns the total number of trainable values.
func (n *Network) NumParameters() int {
	total := 0
	for _, p := range n.Parameters() {
		total += p.Len()
	}
	return total
}

// Forward folds in through every layer.
//
// Panics if the network is not built.
func (n *Network) Forward(in []float64) []float64 {
	if !n.built {
		panic("Network.Forward: " + ErrNotBuilt.Error())
	}
	out := in
	for _, l := range n.layers {
		out = l.Forward(out)
	}
	return out
}

// TrainExample runs one forward pass and one online backward pass through
// the layers' Backprop, updating parameters after every layer. Returns the
// loss before the update.
func (n *Network) TrainExample(input, target []float64, cfg dataset.Config) (float64, error) {
	if !n.built {
		return 0, ErrNotBuilt
	}
	if err := n.checkExample(len(input), len(target)); err != nil {
		return 0, err
	}

	out := n.Forward(input)
	loss := n.loss.Fn(out, target)
	grad := n.loss.Grad(out, target)
	for i := len(n.layers) - 1; i >= 0 && grad != nil; i-- {
		grad = n.layers[i].Backprop(grad, cfg)
	}
	return loss, nil
}

// Backprop trains one epoch over ds and returns the mean loss.
//
// The epoch is processed in windows of ds.Config.BatchSize examples (the
// whole dataset when 0). Each window is split into ds.Config.Batches
// contiguous shards processed by one goroutine each, with private
// workspaces. Once all shards have finished, their gradients are summed in
// shard order and a single descent step is applied. Losses are the values
// observed before each window's update.
func (n *Network) Backprop(ds *dataset.Dataset) (float64, error) {
	if !n.built {
		return 0, ErrNotBuilt
	}
	total := ds.Len()
	if total == 0 {
		return 0, nil
	}
	for i, ex := range ds.Examples {
		if err := n.checkExample(len(ex.Input), len(ex.Target)); err != nil {
			return 0, fmt.Errorf("example %d: %w", i, err)
		}
	}

	cfg := ds.Config
	window := cfg.Window(total)
	workers := make([][]Workspace, min(cfg.Shards(), window))
	for w := range workers {
		workers[w] = n.newWorkspaces()
	}

	var (
		mu      sync.Mutex
		sumLoss float64
	)
	for start := 0; start < total; start += window {
		examples := ds.Examples[start:min(start+window, total)]
		shards := parallel.Partition(len(examples), len(workers))

		parallel.Run(shards, func(w int, r parallel.Range) {
			ws := workers[w]
			resetAll(ws)

			var local float64
			for _, ex := range examples[r.Start:r.End] {
				out := forwardAll(ws, ex.Input)
				local += n.loss.Fn(out, ex.Target)
				backwardAll(ws, n.loss.Grad(out, ex.Target))
			}

			mu.Lock()
			sumLoss += local
			mu.Unlock()
		})

		n.step(workers[:len(shards)], cfg.LearningRate)
	}

	mean := sumLoss / float64(total)
	logger().Debug("epoch complete", "examples", total, "windows", (total+window-1)/window, "loss", mean)
	return mean, nil
}

// step reduces the worker gradients into the first worker's accumulators
// and applies one descent step per layer.
func (n *Network) step(workers [][]Workspace, lr float64) {
	for li, l := range n.layers {
		grads := workers[0][li].Grads()
		for _, ws := range workers[1:] {
			for pi, g := range ws[li].Grads() {
				floats.Add(grads[pi], g)
			}
		}
		applyStep(l.Parameters(), grads, lr)
	}
}

// PredictBatch runs inference on every input, in parallel chunks.
// Parameters are not modified.
func (n *Network) PredictBatch(inputs [][]float64) ([][]float64, error) {
	if !n.built {
		return nil, ErrNotBuilt
	}
	for i, in := range inputs {
		if _, err := n.outputWidth(len(in)); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	outs := make([][]float64, len(inputs))
	parallel.ForChunks(len(inputs), n.par, func(start, end int) {
		ws := n.newWorkspaces()
		for i := start; i < end; i++ {
			outs[i] = forwardAll(ws, inputs[i])
		}
	})
	return outs, nil
}

// Evaluate returns the mean loss and the classification accuracy over ds
// without training. A prediction is correct when its argmax matches the
// target's; single-output networks compare against a 0.5 threshold.
func (n *Network) Evaluate(ds *dataset.Dataset) (loss, accuracy float64, err error) {
	if !n.built {
		return 0, 0, ErrNotBuilt
	}
	if ds.Len() == 0 {
		return 0, 0, nil
	}
	inputs := make([][]float64, ds.Len())
	for i, ex := range ds.Examples {
		if err := n.checkExample(len(ex.Input), len(ex.Target)); err != nil {
			return 0, 0, fmt.Errorf("example %d: %w", i, err)
		}
		inputs[i] = ex.Input
	}

	preds, err := n.PredictBatch(inputs)
	if err != nil {
		return 0, 0, err
	}

	correct := 0
	for i, p := range preds {
		t := ds.Examples[i].Target
		loss += n.loss.Fn(p, t)
		if classMatch(p, t) {
			correct++
		}
	}
	count := float64(ds.Len())
	return loss / count, float64(correct) / count, nil
}

func (n *Network) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Network(loss=%s)", n.loss.Name)
	for i, l := range n.layers {
		fmt.Fprintf(&sb, "\n  (%d) %s", i, l)
	}
	return sb.String()
}

// Topology returns the layer descriptions joined by " -> ".
func (n *Network) Topology() string {
	parts := make([]string, len(n.layers))
	for i, l := range n.layers {
		parts[i] = l.String()
	}
	return strings.Join(parts, " -> ")
}

// outputWidth returns the network output width for an input of width in.
func (n *Network) outputWidth(in int) (int, error) {
	w := in
	for i, l := range n.layers {
		out, ok := l.outputWidth(w)
		if !ok {
			return 0, fmt.Errorf("%w: layer %d (%s) cannot accept width %d", ErrShapeMismatch, i, l, w)
		}
		w = out
	}
	return w, nil
}

func (n *Network) checkExample(in, target int) error {
	out, err := n.outputWidth(in)
	if err != nil {
		return err
	}
	if out != target {
		return fmt.Errorf("%w: network output width %d, target width %d", ErrShapeMismatch, out, target)
	}
	return nil
}

func (n *Network) newWorkspaces() []Workspace {
	ws := make([]Workspace, len(n.layers))
	for i, l := range n.layers {
		ws[i] = l.NewWorkspace()
	}
	return ws
}

func forwardAll(ws []Workspace, in []float64) []float64 {
	out := in
	for _, w := range ws {
		out = w.Forward(out)
	}
	return out
}

// backwardAll propagates grad in reverse, stopping at the first empty
// gradient.
func backwardAll(ws []Workspace, grad []float64) {
	for i := len(ws) - 1; i >= 0 && grad != nil; i-- {
		grad = ws[i].Backward(grad)
	}
}

func resetAll(ws []Workspace) {
	for _, w := range ws {
		w.Reset()
	}
}

func classMatch(pred, target []float64) bool {
	if len(pred) == 1 && len(target) == 1 {
		return (pred[0] > 0.5) == (target[0] > 0.5)
	}
	return dataset.Argmax(pred) == dataset.Argmax(target)
}
