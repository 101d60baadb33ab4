package dataset

import "github.com/pkg/errors"

// Sample is one labeled training example.
type Sample struct {
	Key      string
	Features []float64
	Label    []float64
}

// Dataset is a fully materialized, ordered set of samples.
type Dataset struct {
	Name       string
	InputSize  int
	OutputSize int
	Samples    []Sample
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.Samples)
}

// Validate checks that every sample matches the declared widths.
func (d Dataset) Validate() error {
	if len(d.Samples) == 0 {
		return errors.Errorf("dataset %s: no samples", d.Name)
	}
	for _, s := range d.Samples {
		if len(s.Features) != d.InputSize {
			return errors.Errorf("dataset %s: sample %s has %d features, want %d", d.Name, s.Key, len(s.Features), d.InputSize)
		}
		if len(s.Label) != d.OutputSize {
			return errors.Errorf("dataset %s: sample %s has label width %d, want %d", d.Name, s.Key, len(s.Label), d.OutputSize)
		}
	}
	return nil
}
