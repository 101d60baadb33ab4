package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Initializer initializes weights.
type Initializer interface {
	Initialize(weights *mat.Dense)
}

// GlorotUniform draws from U(-limit, limit) with limit = sqrt(6 / (fanIn + fanOut)).
type GlorotUniform struct {
	Rand *rand.Rand
}

// Initialize fills weights, shaped fanIn x fanOut.
func (g GlorotUniform) Initialize(weights *mat.Dense) {
	fanIn, fanOut := weights.Dims()
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	rng := g.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	weights.Apply(func(_, _ int, _ float64) float64 {
		return (rng.Float64()*2 - 1) * limit
	}, weights)
}
