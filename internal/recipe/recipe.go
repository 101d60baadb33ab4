// Package recipe defines the fixed training pipelines that produce the
// fixture models.
package recipe

import (
	"modelfixtures/internal/config"
	"modelfixtures/internal/dataset"
	"modelfixtures/internal/metrics"
	"modelfixtures/internal/model"
)

// Recipe is everything needed to train and export one fixture model.
type Recipe struct {
	Name      string
	Dataset   func() dataset.Dataset
	Layers    []model.LayerSpec
	Loss      model.Loss
	Metric    metrics.Metric
	Epochs    int
	BatchSize int
	Output    string
}

// Defaults returns the config the recipe runs with when nothing overrides it.
func (r Recipe) Defaults() config.Config {
	return config.Config{
		Output:    r.Output,
		Epochs:    r.Epochs,
		BatchSize: r.BatchSize,
		LogEvery:  100,
		LogLevel:  "info",
	}
}

// FizzBuzz classifies 1..100 given as 7-bit little-endian binary into
// number/fizz/buzz/fizzbuzz.
func FizzBuzz() Recipe {
	return Recipe{
		Name:    "fizzbuzz",
		Dataset: func() dataset.Dataset { return dataset.FizzBuzz(1, 100, 7) },
		Layers: []model.LayerSpec{
			{Units: 64, Activation: model.Tanh},
			{Units: dataset.FizzBuzzClasses, Activation: model.Softmax},
		},
		Loss:      model.CategoricalCrossentropy{},
		Metric:    metrics.CategoricalAccuracy{},
		Epochs:    3600,
		BatchSize: 64,
		Output:    "fizzbuzz_model.tflite",
	}
}

// XOR regresses the XOR truth table.
func XOR() Recipe {
	return Recipe{
		Name:    "xor",
		Dataset: dataset.XOR,
		Layers: []model.LayerSpec{
			{Units: 16, Activation: model.ReLU},
			{Units: 16, Activation: model.ReLU},
			{Units: 1, Activation: model.Linear},
		},
		Loss:      model.MeanSquaredError{},
		Metric:    metrics.MeanAbsoluteError{},
		Epochs:    500,
		BatchSize: 4,
		Output:    "xor_model.tflite",
	}
}
