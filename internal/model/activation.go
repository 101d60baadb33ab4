package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is the nonlinearity applied after a dense transform.
type Activation int

const (
	Linear Activation = iota
	ReLU
	Tanh
	Sigmoid
	Softmax
)

var activationNames = map[Activation]string{
	Linear:  "linear",
	ReLU:    "relu",
	Tanh:    "tanh",
	Sigmoid: "sigmoid",
	Softmax: "softmax",
}

func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return "unknown"
}

// apply computes the activation of z into a new matrix.
func (a Activation) apply(z *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(z)
	switch a {
	case ReLU:
		out.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, out)
	case Tanh:
		out.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, out)
	case Sigmoid:
		out.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, out)
	case Softmax:
		rows, _ := out.Dims()
		for i := 0; i < rows; i++ {
			softmaxInPlace(out.RawRowView(i))
		}
	}
	return out
}

// backward maps the gradient with respect to the activation output to the
// gradient with respect to its input z. out is the forward output.
func (a Activation) backward(z, out, grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	dz := mat.NewDense(rows, cols, nil)
	switch a {
	case Linear:
		dz.Copy(grad)
	case ReLU:
		dz.Apply(func(i, j int, g float64) float64 {
			if z.At(i, j) > 0 {
				return g
			}
			return 0
		}, grad)
	case Tanh:
		dz.Apply(func(i, j int, g float64) float64 {
			y := out.At(i, j)
			return g * (1 - y*y)
		}, grad)
	case Sigmoid:
		dz.Apply(func(i, j int, g float64) float64 {
			y := out.At(i, j)
			return g * y * (1 - y)
		}, grad)
	case Softmax:
		for i := 0; i < rows; i++ {
			p := out.RawRowView(i)
			g := grad.RawRowView(i)
			dot := 0.0
			for j := range p {
				dot += p[j] * g[j]
			}
			row := dz.RawRowView(i)
			for j := range p {
				row[j] = p[j] * (g[j] - dot)
			}
		}
	}
	return dz
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func softmaxInPlace(logits []float64) {
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	for i, v := range logits {
		exp := math.Exp(v - maxLogit)
		logits[i] = exp
		sum += exp
	}
	inv := 1.0 / sum
	for i := range logits {
		logits[i] *= inv
	}
}
