package model

import "math"

// Param exposes a trainable tensor and its gradient as flat views.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Optimizer applies gradients to parameters in place.
type Optimizer interface {
	Step(params []Param)
}

// Adam implements the Adam update with bias correction.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t int
	m [][]float64
	v [][]float64
}

// NewAdam returns Adam with the customary defaults. A non-positive lr selects
// 0.001.
func NewAdam(lr float64) *Adam {
	if lr <= 0 {
		lr = 0.001
	}
	return &Adam{LearningRate: lr, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

// Step updates every parameter. The set of params must not change between calls.
func (a *Adam) Step(params []Param) {
	if len(a.m) != len(params) {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, len(p.Value))
			a.v[i] = make([]float64, len(p.Value))
		}
		a.t = 0
	}
	a.t++
	correct1 := 1 - math.Pow(a.Beta1, float64(a.t))
	correct2 := 1 - math.Pow(a.Beta2, float64(a.t))
	lr := a.LearningRate * math.Sqrt(correct2) / correct1

	for i, p := range params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			p.Value[j] -= lr * m[j] / (math.Sqrt(v[j]) + a.Epsilon)
		}
	}
}
