package model

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Network is a sequential stack of dense layers compiled with a loss and an
// optimizer.
type Network struct {
	Layers []*Dense

	loss      Loss
	optimizer Optimizer
	params    []Param
}

// Config describes a network to build.
type Config struct {
	InputSize int
	Layers    []LayerSpec
	Loss      Loss
	Optimizer Optimizer
	Rand      *rand.Rand
}

// NewNetwork builds the layers with Glorot-uniform weights drawn from cfg.Rand.
func NewNetwork(cfg Config) (*Network, error) {
	if cfg.InputSize <= 0 {
		return nil, errors.Errorf("model: input size must be > 0 (got %d)", cfg.InputSize)
	}
	if len(cfg.Layers) == 0 {
		return nil, errors.New("model: at least one layer is required")
	}
	if cfg.Loss == nil {
		cfg.Loss = MeanSquaredError{}
	}
	if cfg.Optimizer == nil {
		cfg.Optimizer = NewAdam(0)
	}
	initializer := GlorotUniform{Rand: cfg.Rand}

	n := &Network{loss: cfg.Loss, optimizer: cfg.Optimizer}
	in := cfg.InputSize
	for i, spec := range cfg.Layers {
		if spec.Units <= 0 {
			return nil, errors.Errorf("model: layer %d: units must be > 0 (got %d)", i, spec.Units)
		}
		name := "dense"
		if i > 0 {
			name = fmt.Sprintf("dense_%d", i)
		}
		layer := NewDense(name, in, spec.Units, spec.Activation, initializer)
		n.Layers = append(n.Layers, layer)
		n.params = append(n.params, layer.params()...)
		in = spec.Units
	}
	return n, nil
}

// InputSize returns the width of the first layer input.
func (n *Network) InputSize() int {
	in, _ := n.Layers[0].Dims()
	return in
}

// OutputSize returns the width of the last layer output.
func (n *Network) OutputSize() int {
	_, out := n.Layers[len(n.Layers)-1].Dims()
	return out
}

// Loss returns the compiled loss.
func (n *Network) Loss() Loss {
	return n.loss
}

// Params returns the trainable parameters in layer order.
func (n *Network) Params() []Param {
	return n.params
}

// Predict runs a forward pass without touching training state.
func (n *Network) Predict(inputs *mat.Dense) *mat.Dense {
	out := inputs
	for _, l := range n.Layers {
		out = l.infer(out)
	}
	return out
}

// TrainStep executes one optimizer step and returns the batch loss and the
// predictions computed before the update.
func (n *Network) TrainStep(batch Batch) (float64, *mat.Dense) {
	loss, pred := n.gradients(batch)
	n.optimizer.Step(n.params)
	return loss, pred
}

func (n *Network) gradients(batch Batch) (float64, *mat.Dense) {
	out := batch.Inputs
	for _, l := range n.Layers {
		out = l.Forward(out)
	}
	loss, grad := n.loss.Evaluate(out, batch.Targets)
	for i := len(n.Layers) - 1; i >= 0; i-- {
		grad = n.Layers[i].Backward(grad)
	}
	return loss, out
}
