package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss scores predictions against targets and returns the gradient of the
// score with respect to the predictions.
type Loss interface {
	Name() string
	Evaluate(pred, target *mat.Dense) (float64, *mat.Dense)
}

const probEpsilon = 1e-7

// CategoricalCrossentropy expects probability rows and one-hot targets.
type CategoricalCrossentropy struct{}

func (CategoricalCrossentropy) Name() string { return "categorical_crossentropy" }

// Evaluate returns the batch-mean crossentropy. Probabilities are clipped to
// [eps, 1-eps] and the gradient is zero where clipping applied.
func (CategoricalCrossentropy) Evaluate(pred, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	n := float64(rows)
	total := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			y := target.At(i, j)
			if y == 0 {
				continue
			}
			p := pred.At(i, j)
			clipped := math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
			total -= y * math.Log(clipped)
			if clipped == p {
				grad.Set(i, j, -y/(p*n))
			}
		}
	}
	return total / n, grad
}

// MeanSquaredError averages the squared error over every output of every sample.
type MeanSquaredError struct{}

func (MeanSquaredError) Name() string { return "mse" }

func (MeanSquaredError) Evaluate(pred, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := pred.Dims()
	var diff mat.Dense
	diff.Sub(pred, target)
	n := float64(rows * cols)
	total := 0.0
	for i := 0; i < rows; i++ {
		for _, v := range diff.RawRowView(i) {
			total += v * v
		}
	}
	diff.Scale(2/n, &diff)
	return total / n, &diff
}
