package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestNetwork(t *testing.T, loss Loss, layers ...LayerSpec) *Network {
	t.Helper()
	net, err := NewNetwork(Config{
		InputSize: 3,
		Layers:    layers,
		Loss:      loss,
		Optimizer: NewAdam(0.01),
		Rand:      rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return net
}

func testBatch() Batch {
	return Batch{
		Inputs: mat.NewDense(4, 3, []float64{
			0.1, 0.2, 0.3,
			0.4, 0.3, 0.2,
			0.9, 0.1, 0.5,
			0.0, 0.7, 0.2,
		}),
		Targets: mat.NewDense(4, 2, []float64{
			1, 0,
			0, 1,
			0, 1,
			1, 0,
		}),
	}
}

func TestNewNetworkShapes(t *testing.T) {
	net := newTestNetwork(t, CategoricalCrossentropy{},
		LayerSpec{Units: 5, Activation: Tanh},
		LayerSpec{Units: 2, Activation: Softmax})
	require.Equal(t, 3, net.InputSize())
	require.Equal(t, 2, net.OutputSize())
	require.Len(t, net.Params(), 4)
	require.Equal(t, "dense", net.Layers[0].Name)
	require.Equal(t, "dense_1", net.Layers[1].Name)
	for _, b := range net.Layers[0].Bias {
		require.Zero(t, b)
	}
	limit := math.Sqrt(6.0 / 8.0)
	for _, w := range net.Layers[0].Weights.RawMatrix().Data {
		require.LessOrEqual(t, math.Abs(w), limit)
	}
}

func TestNewNetworkRejectsBadConfig(t *testing.T) {
	_, err := NewNetwork(Config{InputSize: 0, Layers: []LayerSpec{{Units: 1}}})
	require.Error(t, err)
	_, err = NewNetwork(Config{InputSize: 2})
	require.Error(t, err)
	_, err = NewNetwork(Config{InputSize: 2, Layers: []LayerSpec{{Units: 0}}})
	require.Error(t, err)
}

func TestPredictSoftmaxRowsSumToOne(t *testing.T) {
	net := newTestNetwork(t, CategoricalCrossentropy{},
		LayerSpec{Units: 5, Activation: Tanh},
		LayerSpec{Units: 2, Activation: Softmax})
	out := net.Predict(testBatch().Inputs)
	rows, cols := out.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		require.InDelta(t, 1.0, mat.Sum(out.RowView(i)), 1e-12)
	}
}

func TestGradientsMatchNumeric(t *testing.T) {
	cases := []struct {
		name   string
		loss   Loss
		layers []LayerSpec
	}{
		{"tanh-softmax-cce", CategoricalCrossentropy{}, []LayerSpec{{4, Tanh}, {2, Softmax}}},
		{"sigmoid-linear-mse", MeanSquaredError{}, []LayerSpec{{4, Sigmoid}, {2, Linear}}},
		{"relu-mse", MeanSquaredError{}, []LayerSpec{{6, ReLU}, {2, Linear}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			net := newTestNetwork(t, tc.loss, tc.layers...)
			batch := testBatch()
			net.gradients(batch)

			const h = 1e-6
			for _, p := range net.Params() {
				for j := range p.Value {
					orig := p.Value[j]
					p.Value[j] = orig + h
					plus, _ := tc.loss.Evaluate(net.Predict(batch.Inputs), batch.Targets)
					p.Value[j] = orig - h
					minus, _ := tc.loss.Evaluate(net.Predict(batch.Inputs), batch.Targets)
					p.Value[j] = orig

					numeric := (plus - minus) / (2 * h)
					require.InDelta(t, numeric, p.Grad[j], 1e-5, "%s[%d]", p.Name, j)
				}
			}
		})
	}
}

func TestTrainStepReducesLoss(t *testing.T) {
	net := newTestNetwork(t, CategoricalCrossentropy{},
		LayerSpec{Units: 8, Activation: Tanh},
		LayerSpec{Units: 2, Activation: Softmax})
	batch := testBatch()
	first, pred := net.TrainStep(batch)
	rows, cols := pred.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)

	last := first
	for i := 0; i < 200; i++ {
		last, _ = net.TrainStep(batch)
	}
	require.Less(t, last, first)
}
