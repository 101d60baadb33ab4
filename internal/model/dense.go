package model

import (
	"gonum.org/v1/gonum/mat"
)

// LayerSpec describes a dense layer before its weights exist.
type LayerSpec struct {
	Units      int
	Activation Activation
}

// Dense is a fully-connected layer: out = act(x*W + b).
type Dense struct {
	Name       string
	Weights    *mat.Dense // in x out
	Bias       []float64
	Activation Activation

	input  *mat.Dense
	preact *mat.Dense
	output *mat.Dense
	gradW  *mat.Dense
	gradB  []float64
}

// NewDense allocates a layer and initializes its weights with initializer. Biases
// start at zero.
func NewDense(name string, in, out int, act Activation, initializer Initializer) *Dense {
	d := &Dense{
		Name:       name,
		Weights:    mat.NewDense(in, out, nil),
		Bias:       make([]float64, out),
		Activation: act,
		gradW:      mat.NewDense(in, out, nil),
		gradB:      make([]float64, out),
	}
	if initializer != nil {
		initializer.Initialize(d.Weights)
	}
	return d
}

// Dims returns the layer input and output widths.
func (d *Dense) Dims() (in, out int) {
	return d.Weights.Dims()
}

// Forward computes the layer output and keeps what Backward needs.
func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	z := d.transform(x)
	out := d.Activation.apply(z)
	d.input, d.preact, d.output = x, z, out
	return out
}

// Backward takes the gradient of the loss with respect to the layer output,
// stores the parameter gradients and returns the gradient with respect to the
// layer input.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	dz := d.Activation.backward(d.preact, d.output, grad)

	d.gradW.Mul(d.input.T(), dz)
	for j := range d.gradB {
		d.gradB[j] = 0
	}
	rows, _ := dz.Dims()
	for i := 0; i < rows; i++ {
		for j, v := range dz.RawRowView(i) {
			d.gradB[j] += v
		}
	}

	var dx mat.Dense
	dx.Mul(dz, d.Weights.T())
	return &dx
}

func (d *Dense) infer(x *mat.Dense) *mat.Dense {
	return d.Activation.apply(d.transform(x))
}

func (d *Dense) transform(x *mat.Dense) *mat.Dense {
	var z mat.Dense
	z.Mul(x, d.Weights)
	rows, _ := z.Dims()
	for i := 0; i < rows; i++ {
		row := z.RawRowView(i)
		for j := range row {
			row[j] += d.Bias[j]
		}
	}
	return &z
}

func (d *Dense) params() []Param {
	return []Param{
		{Name: d.Name + "/kernel", Value: d.Weights.RawMatrix().Data, Grad: d.gradW.RawMatrix().Data},
		{Name: d.Name + "/bias", Value: d.Bias, Grad: d.gradB},
	}
}
