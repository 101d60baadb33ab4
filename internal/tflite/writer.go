package tflite

import (
	"encoding/binary"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"

	"modelfixtures/internal/model"
)

// Options tunes Convert.
type Options struct {
	// Description is stored in Model.description.
	Description string
	// InputName names the graph input tensor.
	InputName string
}

type tensorSpec struct {
	name      string
	shape     []int32
	signature []int32
	buffer    uint32
}

type operatorSpec struct {
	op         BuiltinOperator
	inputs     []int32
	outputs    []int32
	activation ActivationFunction
}

type graph struct {
	tensors   []tensorSpec
	operators []operatorSpec
	buffers   [][]byte
	input     int32
	output    int32
}

// Convert serializes net as a single-subgraph TFLite model with a [1, in]
// input and a [1, out] output. Linear, ReLU and Tanh layers become one
// FULLY_CONNECTED with a fused activation; Softmax and Sigmoid layers add a
// separate SOFTMAX or LOGISTIC operator.
func Convert(net *model.Network, opts Options) ([]byte, error) {
	if net == nil || len(net.Layers) == 0 {
		return nil, errors.New("tflite: empty network")
	}
	if opts.Description == "" {
		opts.Description = "modelfixtures"
	}
	if opts.InputName == "" {
		opts.InputName = "serving_default_" + net.Layers[0].Name + "_input:0"
	}
	g, err := buildGraph(net, opts)
	if err != nil {
		return nil, err
	}
	return g.serialize(opts.Description), nil
}

func buildGraph(net *model.Network, opts Options) (*graph, error) {
	g := &graph{buffers: [][]byte{nil}}
	in := int32(net.InputSize())
	g.input = g.addTensor(opts.InputName, in)
	cur := g.input

	for i, layer := range net.Layers {
		fanIn, fanOut := layer.Dims()
		if int32(fanIn) != in {
			return nil, errors.Errorf("tflite: layer %s expects %d inputs, previous layer produces %d", layer.Name, fanIn, in)
		}
		out := int32(fanOut)
		last := i == len(net.Layers)-1

		weights := g.addConst(layer.Name+"/MatMul", []int32{out, in}, transposed(layer))
		bias := g.addConst(layer.Name+"/BiasAdd/ReadVariableOp", []int32{out}, float32Bytes(layer.Bias))

		var fused ActivationFunction
		var follow BuiltinOperator
		separate := false
		switch layer.Activation {
		case model.Linear:
			fused = ActNone
		case model.ReLU:
			fused = ActRelu
		case model.Tanh:
			fused = ActTanh
		case model.Softmax:
			follow, separate = OpSoftmax, true
		case model.Sigmoid:
			follow, separate = OpLogistic, true
		default:
			return nil, errors.Errorf("tflite: layer %s: unsupported activation %s", layer.Name, layer.Activation)
		}

		fcName := layer.Name + "/MatMul;" + layer.Name + "/BiasAdd"
		if last && !separate {
			fcName = "StatefulPartitionedCall:0"
		}
		fcOut := g.addTensor(fcName, out)
		g.operators = append(g.operators, operatorSpec{
			op:         OpFullyConnected,
			inputs:     []int32{cur, weights, bias},
			outputs:    []int32{fcOut},
			activation: fused,
		})
		cur = fcOut

		if separate {
			name := layer.Name + "/" + layer.Activation.String()
			if last {
				name = "StatefulPartitionedCall:0"
			}
			actOut := g.addTensor(name, out)
			g.operators = append(g.operators, operatorSpec{
				op:      follow,
				inputs:  []int32{cur},
				outputs: []int32{actOut},
			})
			cur = actOut
		}
		in = out
	}
	g.output = cur
	return g, nil
}

// addTensor appends an activation tensor shaped [1, width]. Activation
// tensors reference the empty sentinel buffer.
func (g *graph) addTensor(name string, width int32) int32 {
	g.tensors = append(g.tensors, tensorSpec{
		name:      name,
		shape:     []int32{1, width},
		signature: []int32{-1, width},
	})
	return int32(len(g.tensors) - 1)
}

func (g *graph) addConst(name string, shape []int32, data []byte) int32 {
	g.buffers = append(g.buffers, data)
	g.tensors = append(g.tensors, tensorSpec{
		name:   name,
		shape:  shape,
		buffer: uint32(len(g.buffers) - 1),
	})
	return int32(len(g.tensors) - 1)
}

func (g *graph) serialize(description string) []byte {
	b := flatbuffers.NewBuilder(1024)

	// Operator codes, deduplicated in first-use order.
	codeIndex := make(map[BuiltinOperator]uint32)
	var codes []BuiltinOperator
	for _, op := range g.operators {
		if _, ok := codeIndex[op.op]; !ok {
			codeIndex[op.op] = uint32(len(codes))
			codes = append(codes, op.op)
		}
	}
	codeOffsets := make([]flatbuffers.UOffsetT, len(codes))
	for i, code := range codes {
		b.StartObject(opcodeNumFields)
		b.PrependInt32Slot(opcodeBuiltin, int32(code), 0)
		b.PrependInt32Slot(opcodeVersion, 1, 1)
		if code < 127 {
			b.PrependInt8Slot(opcodeDeprecatedBuiltin, int8(code), 0)
		}
		codeOffsets[i] = b.EndObject()
	}

	bufferOffsets := make([]flatbuffers.UOffsetT, len(g.buffers))
	for i, data := range g.buffers {
		var dataOff flatbuffers.UOffsetT
		if len(data) > 0 {
			b.StartVector(1, len(data), bufferAlignment)
			for j := len(data) - 1; j >= 0; j-- {
				b.PrependByte(data[j])
			}
			dataOff = b.EndVector(len(data))
		}
		b.StartObject(bufferNumFields)
		if dataOff != 0 {
			b.PrependUOffsetTSlot(bufferData, dataOff, 0)
		}
		bufferOffsets[i] = b.EndObject()
	}

	tensorOffsets := make([]flatbuffers.UOffsetT, len(g.tensors))
	for i, t := range g.tensors {
		name := b.CreateString(t.name)
		shape := int32Vector(b, t.shape)
		var signature flatbuffers.UOffsetT
		if t.signature != nil {
			signature = int32Vector(b, t.signature)
		}
		b.StartObject(tensorNumFields)
		b.PrependUOffsetTSlot(tensorShape, shape, 0)
		b.PrependInt8Slot(tensorType, int8(TensorFloat32), 0)
		b.PrependUint32Slot(tensorBuffer, t.buffer, 0)
		b.PrependUOffsetTSlot(tensorName, name, 0)
		if signature != 0 {
			b.PrependUOffsetTSlot(tensorShapeSignature, signature, 0)
		}
		tensorOffsets[i] = b.EndObject()
	}

	operatorOffsets := make([]flatbuffers.UOffsetT, len(g.operators))
	for i, op := range g.operators {
		inputs := int32Vector(b, op.inputs)
		outputs := int32Vector(b, op.outputs)
		optionsType, options := writeOptions(b, op)
		b.StartObject(operatorNumFields)
		b.PrependUint32Slot(operatorOpcodeIndex, codeIndex[op.op], 0)
		b.PrependUOffsetTSlot(operatorInputs, inputs, 0)
		b.PrependUOffsetTSlot(operatorOutputs, outputs, 0)
		if options != 0 {
			b.PrependByteSlot(operatorOptionsType, byte(optionsType), 0)
			b.PrependUOffsetTSlot(operatorOptions, options, 0)
		}
		operatorOffsets[i] = b.EndObject()
	}

	graphName := b.CreateString("main")
	tensors := offsetVector(b, tensorOffsets)
	inputs := int32Vector(b, []int32{g.input})
	outputs := int32Vector(b, []int32{g.output})
	operators := offsetVector(b, operatorOffsets)
	b.StartObject(subgraphNumFields)
	b.PrependUOffsetTSlot(subgraphTensors, tensors, 0)
	b.PrependUOffsetTSlot(subgraphInputs, inputs, 0)
	b.PrependUOffsetTSlot(subgraphOutputs, outputs, 0)
	b.PrependUOffsetTSlot(subgraphOperators, operators, 0)
	b.PrependUOffsetTSlot(subgraphName, graphName, 0)
	subgraph := b.EndObject()

	desc := b.CreateString(description)
	opcodes := offsetVector(b, codeOffsets)
	subgraphs := offsetVector(b, []flatbuffers.UOffsetT{subgraph})
	buffers := offsetVector(b, bufferOffsets)
	b.StartObject(modelNumFields)
	b.PrependUint32Slot(modelVersion, SchemaVersion, 0)
	b.PrependUOffsetTSlot(modelOperatorCodes, opcodes, 0)
	b.PrependUOffsetTSlot(modelSubgraphs, subgraphs, 0)
	b.PrependUOffsetTSlot(modelDescription, desc, 0)
	b.PrependUOffsetTSlot(modelBuffers, buffers, 0)
	root := b.EndObject()

	b.FinishWithFileIdentifier(root, []byte(FileIdentifier))
	return b.FinishedBytes()
}

func writeOptions(b *flatbuffers.Builder, op operatorSpec) (BuiltinOptions, flatbuffers.UOffsetT) {
	switch op.op {
	case OpFullyConnected:
		b.StartObject(fullyConnectedNumFields)
		b.PrependInt8Slot(fullyConnectedActivation, int8(op.activation), 0)
		return OptionsFullyConnected, b.EndObject()
	case OpSoftmax:
		b.StartObject(softmaxNumFields)
		b.PrependFloat32Slot(softmaxBeta, 1, 0)
		return OptionsSoftmax, b.EndObject()
	}
	return OptionsNone, 0
}

func int32Vector(b *flatbuffers.Builder, v []int32) flatbuffers.UOffsetT {
	b.StartVector(4, len(v), 4)
	for i := len(v) - 1; i >= 0; i-- {
		b.PrependInt32(v[i])
	}
	return b.EndVector(len(v))
}

func offsetVector(b *flatbuffers.Builder, v []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(4, len(v), 4)
	for i := len(v) - 1; i >= 0; i-- {
		b.PrependUOffsetT(v[i])
	}
	return b.EndVector(len(v))
}

// transposed returns the layer kernel as [out, in] little-endian float32s.
func transposed(layer *model.Dense) []byte {
	in, out := layer.Dims()
	vals := make([]float64, 0, in*out)
	for o := 0; o < out; o++ {
		for i := 0; i < in; i++ {
			vals = append(vals, layer.Weights.At(i, o))
		}
	}
	return float32Bytes(vals)
}

func float32Bytes(v []float64) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(x)))
	}
	return out
}
