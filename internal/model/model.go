package model

import "gonum.org/v1/gonum/mat"

// Batch represents a minibatch of features and targets, one sample per row.
type Batch struct {
	Inputs  *mat.Dense
	Targets *mat.Dense
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	if b.Inputs == nil {
		return 0
	}
	r, _ := b.Inputs.Dims()
	return r
}

// Model defines the training functionality the trainer drives.
type Model interface {
	// TrainStep runs one optimizer update and returns the batch loss together
	// with the predictions made before the update.
	TrainStep(batch Batch) (float64, *mat.Dense)
	Predict(inputs *mat.Dense) *mat.Dense
	InputSize() int
	OutputSize() int
}
