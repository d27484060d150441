package nn

import (
	"testing"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xorNetwork builds [dense(2, relu), dense(10, tanh), dense(1, sigmoid)]
// with binary cross-entropy.
func xorNetwork(t *testing.T, seed uint64) *Network {
	t.Helper()
	net, err := NewSequential(BCE, seed,
		NewDense(2, ReLU),
		NewDense(10, Tanh),
		NewDense(1, Sigmoid),
	)
	require.NoError(t, err)
	return net
}

// regressionData returns n examples mapping 3 inputs to 2 targets.
func regressionData(n int, cfg dataset.Config) *dataset.Dataset {
	rng := NewRand(123)
	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := range inputs {
		x := randVec(rng, 3, -1, 1)
		inputs[i] = x
		targets[i] = []float64{x[0] - 0.5*x[1], x[2] * x[0]}
	}
	ds, _ := dataset.New(inputs, targets, cfg)
	return ds
}

func regressionNetwork(t *testing.T, seed uint64) *Network {
	t.Helper()
	net, err := NewSequential(MSE, seed,
		NewLinear(3),
		NewNormalization(6),
		NewGating(6),
		NewDense(5, Tanh),
		NewLinear(2),
	)
	require.NoError(t, err)
	return net
}

func TestNetwork_Build(t *testing.T) {
	net := NewNetwork()
	assert.ErrorIs(t, net.Build(), ErrEmptyNetwork)

	require.NoError(t, net.Add(NewDense(4, ReLU), NewDense(3, Tanh)))
	require.NoError(t, net.Build())
	assert.True(t, net.Built())

	assert.ErrorIs(t, net.Build(), ErrAlreadyBuilt)
	assert.ErrorIs(t, net.Add(NewLinear(1)), ErrAlreadyBuilt)

	layers := net.Layers()
	assert.Equal(t, 0, layers[0].PrevSize())
	assert.Equal(t, 4, layers[1].PrevSize())
	assert.Equal(t, 12+3, net.NumParameters())
}

func TestNetwork_NotBuilt(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.Add(NewLinear(2)))

	assert.Panics(t, func() { net.Forward([]float64{1}) })
	_, err := net.Backprop(dataset.XOR(dataset.DefaultConfig()))
	assert.ErrorIs(t, err, ErrNotBuilt)
	_, err = net.PredictBatch([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotBuilt)
	assert.ErrorIs(t, net.Save(t.TempDir()+"/x.born"), ErrNotBuilt)
}

func TestNetwork_SeedDeterminism(t *testing.T) {
	a, b := regressionNetwork(t, 5), regressionNetwork(t, 5)
	assert.Equal(t, a.StateDict(), b.StateDict())

	c := regressionNetwork(t, 6)
	assert.NotEqual(t, a.StateDict(), c.StateDict())
}

func TestNetwork_ForwardIdempotent(t *testing.T) {
	net := regressionNetwork(t, 1)
	x := []float64{0.3, -0.2, 0.9}

	first := net.Forward(x)
	assert.Len(t, first, 2)
	for range 5 {
		assert.Equal(t, first, net.Forward(x))
	}
}

func TestNetwork_PredictBatchMatchesForward(t *testing.T) {
	net := regressionNetwork(t, 2)
	net.par = parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	ds := regressionData(40, dataset.DefaultConfig())
	inputs := make([][]float64, ds.Len())
	for i, ex := range ds.Examples {
		inputs[i] = ex.Input
	}

	outs, err := net.PredictBatch(inputs)
	require.NoError(t, err)
	for i, in := range inputs {
		assert.Equal(t, net.Forward(in), outs[i])
	}
}

func TestNetwork_BackpropShardsAgree(t *testing.T) {
	// One update per epoch: the summed gradient does not depend on how
	// the examples are sharded.
	single := regressionNetwork(t, 3)
	sharded := regressionNetwork(t, 3)

	dsSingle := regressionData(37, dataset.Config{LearningRate: 0.01, Batches: 1})
	dsSharded := regressionData(37, dataset.Config{LearningRate: 0.01, Batches: 4})

	for range 5 {
		l1, err := single.Backprop(dsSingle)
		require.NoError(t, err)
		l2, err := sharded.Backprop(dsSharded)
		require.NoError(t, err)
		assert.InDelta(t, l1, l2, 1e-9)
	}

	want, got := single.StateDict(), sharded.StateDict()
	for key := range want {
		assert.InDeltaSlice(t, want[key], got[key], 1e-9, key)
	}
}

func TestNetwork_BackpropShardedDeterministic(t *testing.T) {
	a, b := regressionNetwork(t, 4), regressionNetwork(t, 4)
	cfg := dataset.Config{LearningRate: 0.02, Batches: 3, BatchSize: 8}

	for range 3 {
		_, err := a.Backprop(regressionData(50, cfg))
		require.NoError(t, err)
		_, err = b.Backprop(regressionData(50, cfg))
		require.NoError(t, err)
	}
	assert.Equal(t, a.StateDict(), b.StateDict())
}

func TestNetwork_WindowOfOneMatchesOnlineTraining(t *testing.T) {
	batched := regressionNetwork(t, 7)
	online := regressionNetwork(t, 7)
	cfg := dataset.Config{LearningRate: 0.05, Batches: 1, BatchSize: 1}
	ds := regressionData(12, cfg)

	_, err := batched.Backprop(ds)
	require.NoError(t, err)
	for _, ex := range ds.Examples {
		_, err := online.TrainExample(ex.Input, ex.Target, cfg)
		require.NoError(t, err)
	}

	want, got := online.StateDict(), batched.StateDict()
	for key := range want {
		assert.InDeltaSlice(t, want[key], got[key], 1e-12, key)
	}
}

func TestNetwork_BackpropReducesLoss(t *testing.T) {
	net := regressionNetwork(t, 8)
	ds := regressionData(64, dataset.Config{LearningRate: 0.005, Batches: 4, BatchSize: 16})

	first, err := net.Backprop(ds)
	require.NoError(t, err)
	var last float64
	for range 200 {
		last, err = net.Backprop(ds)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
}

func TestNetwork_BackpropShapeMismatch(t *testing.T) {
	net := regressionNetwork(t, 9)
	before := net.StateDict()

	bad, _ := dataset.New([][]float64{{1, 2}}, [][]float64{{0, 0}}, dataset.DefaultConfig())
	_, err := net.Backprop(bad)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	badTarget, _ := dataset.New([][]float64{{1, 2, 3}}, [][]float64{{0}}, dataset.DefaultConfig())
	_, err = net.Backprop(badTarget)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	assert.Equal(t, before, net.StateDict())
}

func TestNetwork_BackpropEmpty(t *testing.T) {
	net := regressionNetwork(t, 10)
	loss, err := net.Backprop(&dataset.Dataset{Config: dataset.DefaultConfig()})
	require.NoError(t, err)
	assert.Zero(t, loss)
}

func TestNetwork_EmptyGradientStopsPropagation(t *testing.T) {
	net := regressionNetwork(t, 11)
	net.Forward([]float64{0.1, 0.2, 0.3})
	before := net.StateDict()

	// A gradient that matches no layer stops at the last one.
	grad := []float64{1, 2, 3, 4}
	layers := net.Layers()
	for i := len(layers) - 1; i >= 0 && grad != nil; i-- {
		grad = layers[i].Backprop(grad, dataset.Config{LearningRate: 0.1})
	}
	assert.Nil(t, grad)
	assert.Equal(t, before, net.StateDict())
}

func TestNetwork_Evaluate(t *testing.T) {
	net := xorNetwork(t, 1)
	loss, acc, err := net.Evaluate(dataset.XOR(dataset.DefaultConfig()))
	require.NoError(t, err)
	assert.Positive(t, loss)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}

func TestNetwork_String(t *testing.T) {
	net := xorNetwork(t, 1)
	assert.Equal(t, "Dense(2, relu) -> Dense(10, tanh) -> Dense(1, sigmoid)", net.Topology())
	assert.Contains(t, net.String(), "Network(loss=bce)")
}

func TestNetwork_XOR(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping XOR convergence in short mode")
	}

	net := xorNetwork(t, 42)
	ds := dataset.XOR(dataset.Config{LearningRate: 0.01, Batches: 1, BatchSize: 1})

	var loss float64
	var err error
	for range 10_000 {
		loss, err = net.Backprop(ds)
		require.NoError(t, err)
	}

	assert.Less(t, loss, 0.05)
	for _, ex := range ds.Examples {
		p := net.Forward(ex.Input)[0]
		if ex.Target[0] == 1 {
			assert.Greater(t, p, 0.5, "input %v", ex.Input)
		} else {
			assert.Less(t, p, 0.5, "input %v", ex.Input)
		}
	}

	_, acc, err := net.Evaluate(ds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}
