package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Metric scores a batch of predictions against targets.
type Metric interface {
	Name() string
	Eval(pred, target mat.Matrix) float64
}

// CategoricalAccuracy is the fraction of rows whose argmax matches the target argmax.
type CategoricalAccuracy struct{}

func (CategoricalAccuracy) Name() string { return "accuracy" }

func (CategoricalAccuracy) Eval(pred, target mat.Matrix) float64 {
	rows, _ := pred.Dims()
	if rows == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < rows; i++ {
		if argmax(pred, i) == argmax(target, i) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

// MeanAbsoluteError averages |pred - target| over all entries.
type MeanAbsoluteError struct{}

func (MeanAbsoluteError) Name() string { return "mae" }

func (MeanAbsoluteError) Eval(pred, target mat.Matrix) float64 {
	rows, cols := pred.Dims()
	if rows*cols == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			total += math.Abs(pred.At(i, j) - target.At(i, j))
		}
	}
	return total / float64(rows*cols)
}

func argmax(m mat.Matrix, row int) int {
	_, cols := m.Dims()
	best := 0
	for j := 1; j < cols; j++ {
		if m.At(row, j) > m.At(row, best) {
			best = j
		}
	}
	return best
}
