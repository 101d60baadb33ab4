package tflite

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Interpreter evaluates the main subgraph of a Model in float32. It supports
// the operators Convert emits.
type Interpreter struct {
	model   *Model
	graph   *Subgraph
	consts  map[int32][]float32
	inWidth int
}

// NewInterpreter checks that every operator and tensor of m is supported and
// decodes the constant tensors.
func NewInterpreter(m *Model) (*Interpreter, error) {
	if m == nil || len(m.Subgraphs) == 0 {
		return nil, errors.New("tflite: model has no subgraph")
	}
	sg := &m.Subgraphs[0]
	if len(sg.Inputs) != 1 || len(sg.Outputs) != 1 {
		return nil, errors.Errorf("tflite: want one input and one output, got %d and %d", len(sg.Inputs), len(sg.Outputs))
	}
	it := &Interpreter{model: m, graph: sg, consts: make(map[int32][]float32)}

	for i, t := range sg.Tensors {
		if t.Type != TensorFloat32 {
			return nil, errors.Errorf("tflite: tensor %q: unsupported type %d", t.Name, t.Type)
		}
		data := m.Buffers[t.Buffer]
		if len(data) == 0 {
			continue
		}
		if len(data)%4 != 0 {
			return nil, errors.Errorf("tflite: tensor %q: buffer length %d is not a multiple of 4", t.Name, len(data))
		}
		vals := make([]float32, len(data)/4)
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*j:]))
		}
		if want := elements(t.Shape); want != len(vals) {
			return nil, errors.Errorf("tflite: tensor %q: shape %v needs %d values, buffer has %d", t.Name, t.Shape, want, len(vals))
		}
		it.consts[int32(i)] = vals
	}

	for i, op := range sg.Operators {
		code := m.OperatorCodes[op.OpcodeIndex].Builtin
		if len(op.Inputs) == 0 || len(op.Outputs) == 0 {
			return nil, errors.Errorf("tflite: operator %d: %s needs an input and an output", i, code)
		}
		if op.Inputs[0] == OmittedTensor {
			return nil, errors.Errorf("tflite: operator %d: %s data input is omitted", i, code)
		}
		switch code {
		case OpFullyConnected:
			if len(op.Inputs) < 2 {
				return nil, errors.Errorf("tflite: operator %d: FULLY_CONNECTED needs weights", i)
			}
			if _, ok := it.consts[op.Inputs[1]]; !ok {
				return nil, errors.Errorf("tflite: operator %d: weights must be constant", i)
			}
			if len(op.Inputs) > 2 && op.Inputs[2] != OmittedTensor {
				if _, ok := it.consts[op.Inputs[2]]; !ok {
					return nil, errors.Errorf("tflite: operator %d: bias must be constant", i)
				}
			}
			switch op.FusedActivation {
			case ActNone, ActRelu, ActTanh:
			default:
				return nil, errors.Errorf("tflite: operator %d: unsupported fused activation %d", i, op.FusedActivation)
			}
		case OpRelu, OpTanh, OpLogistic, OpSoftmax:
		default:
			return nil, errors.Errorf("tflite: operator %d: unsupported builtin %s", i, code)
		}
	}

	shape := m.InputShape()
	if len(shape) == 0 {
		return nil, errors.New("tflite: input tensor has no shape")
	}
	it.inWidth = int(shape[len(shape)-1])
	return it, nil
}

// Invoke runs the graph over input, which holds one or more samples of the
// model's input width each, and returns the flattened output.
func (it *Interpreter) Invoke(input []float32) ([]float32, error) {
	if it.inWidth <= 0 || len(input) == 0 || len(input)%it.inWidth != 0 {
		return nil, errors.Errorf("tflite: input length %d is not a multiple of %d", len(input), it.inWidth)
	}
	rows := len(input) / it.inWidth
	values := make(map[int32][]float32, len(it.graph.Tensors))
	values[it.graph.Inputs[0]] = input

	for i, op := range it.graph.Operators {
		in, ok := values[op.Inputs[0]]
		if !ok {
			return nil, errors.Errorf("tflite: operator %d reads tensor %d before it is written", i, op.Inputs[0])
		}
		var out []float32
		switch it.model.OperatorCodes[op.OpcodeIndex].Builtin {
		case OpFullyConnected:
			var err error
			out, err = it.fullyConnected(op, in, rows)
			if err != nil {
				return nil, errors.Wrapf(err, "operator %d", i)
			}
		case OpRelu:
			out = mapValues(in, relu)
		case OpTanh:
			out = mapValues(in, tanh)
		case OpLogistic:
			out = mapValues(in, logistic)
		case OpSoftmax:
			out = softmax(in, rows, op.SoftmaxBeta)
		}
		values[op.Outputs[0]] = out
	}

	out, ok := values[it.graph.Outputs[0]]
	if !ok {
		return nil, errors.New("tflite: output tensor never written")
	}
	return out, nil
}

func (it *Interpreter) fullyConnected(op Operator, in []float32, rows int) ([]float32, error) {
	weights := it.consts[op.Inputs[1]]
	shape := it.graph.Tensors[op.Inputs[1]].Shape
	if len(shape) != 2 {
		return nil, errors.Errorf("weights shape %v is not 2-D", shape)
	}
	units, width := int(shape[0]), int(shape[1])
	if len(in) != rows*width {
		return nil, errors.Errorf("input has %d values, want %d", len(in), rows*width)
	}
	var bias []float32
	if len(op.Inputs) > 2 && op.Inputs[2] != OmittedTensor {
		bias = it.consts[op.Inputs[2]]
		if len(bias) != units {
			return nil, errors.Errorf("bias has %d values, want %d", len(bias), units)
		}
	}

	out := make([]float32, rows*units)
	for r := 0; r < rows; r++ {
		x := in[r*width : (r+1)*width]
		for u := 0; u < units; u++ {
			w := weights[u*width : (u+1)*width]
			var sum float32
			for k := range x {
				sum += w[k] * x[k]
			}
			if bias != nil {
				sum += bias[u]
			}
			switch op.FusedActivation {
			case ActRelu:
				sum = relu(sum)
			case ActTanh:
				sum = tanh(sum)
			}
			out[r*units+u] = sum
		}
	}
	return out, nil
}

func elements(shape []int32) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

func mapValues(in []float32, fn func(float32) float32) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func relu(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}

func tanh(v float32) float32 {
	return float32(math.Tanh(float64(v)))
}

func logistic(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func softmax(in []float32, rows int, beta float32) []float32 {
	out := make([]float32, len(in))
	width := len(in) / rows
	for r := 0; r < rows; r++ {
		row := in[r*width : (r+1)*width]
		maxV := row[0]
		for _, v := range row {
			if v > maxV {
				maxV = v
			}
		}
		var sum float64
		for i, v := range row {
			e := math.Exp(float64(beta * (v - maxV)))
			out[r*width+i] = float32(e)
			sum += e
		}
		for i := range row {
			out[r*width+i] = float32(float64(out[r*width+i]) / sum)
		}
	}
	return out
}
