package tflite

import (
	"fmt"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"
)

// ErrMalformed is returned when a buffer is not a readable TFLite model.
var ErrMalformed = errors.New("tflite: malformed model")

// Model is the decoded subset of a TFLite flatbuffer.
type Model struct {
	Version       uint32
	Description   string
	OperatorCodes []OperatorCode
	Subgraphs     []Subgraph
	Buffers       [][]byte
}

// OperatorCode identifies the builtin behind an operator.
type OperatorCode struct {
	Builtin BuiltinOperator
	Version int32
}

// Subgraph is one computation graph of the model.
type Subgraph struct {
	Name      string
	Tensors   []Tensor
	Inputs    []int32
	Outputs   []int32
	Operators []Operator
}

// Tensor describes one tensor of a subgraph.
type Tensor struct {
	Name           string
	Shape          []int32
	ShapeSignature []int32
	Type           TensorType
	Buffer         uint32
}

// Operator is one node of a subgraph.
type Operator struct {
	OpcodeIndex     uint32
	Inputs          []int32
	Outputs         []int32
	OptionsType     BuiltinOptions
	FusedActivation ActivationFunction
	SoftmaxBeta     float32
}

// Load decodes buf. Any structural inconsistency yields an error wrapping
// ErrMalformed.
func Load(buf []byte) (m *Model, err error) {
	if len(buf) < 8 {
		return nil, errors.Wrap(ErrMalformed, "buffer too short")
	}
	if id := string(buf[4:8]); id != FileIdentifier {
		return nil, errors.Wrapf(ErrMalformed, "file identifier %q", id)
	}
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, errors.Wrapf(ErrMalformed, "%v", r)
		}
	}()

	root := table{flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}}
	m = &Model{
		Version:     root.getUint32(modelVersion, 0),
		Description: root.getString(modelDescription),
	}
	for _, t := range root.tables(modelOperatorCodes) {
		code := BuiltinOperator(t.getInt32(opcodeBuiltin, 0))
		if deprecated := BuiltinOperator(t.getInt8(opcodeDeprecatedBuiltin, 0)); deprecated > code {
			code = deprecated
		}
		m.OperatorCodes = append(m.OperatorCodes, OperatorCode{Builtin: code, Version: t.getInt32(opcodeVersion, 1)})
	}
	for _, t := range root.tables(modelBuffers) {
		m.Buffers = append(m.Buffers, append([]byte(nil), t.getBytes(bufferData)...))
	}
	for _, t := range root.tables(modelSubgraphs) {
		m.Subgraphs = append(m.Subgraphs, readSubgraph(t))
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readSubgraph(t table) Subgraph {
	sg := Subgraph{
		Name:    t.getString(subgraphName),
		Inputs:  t.int32s(subgraphInputs),
		Outputs: t.int32s(subgraphOutputs),
	}
	for _, tt := range t.tables(subgraphTensors) {
		sg.Tensors = append(sg.Tensors, Tensor{
			Name:           tt.getString(tensorName),
			Shape:          tt.int32s(tensorShape),
			ShapeSignature: tt.int32s(tensorShapeSignature),
			Type:           TensorType(tt.getInt8(tensorType, 0)),
			Buffer:         tt.getUint32(tensorBuffer, 0),
		})
	}
	for _, ot := range t.tables(subgraphOperators) {
		op := Operator{
			OpcodeIndex: ot.getUint32(operatorOpcodeIndex, 0),
			Inputs:      ot.int32s(operatorInputs),
			Outputs:     ot.int32s(operatorOutputs),
			OptionsType: BuiltinOptions(ot.getUint8(operatorOptionsType, 0)),
			SoftmaxBeta: 1,
		}
		if options, ok := ot.union(operatorOptions); ok {
			switch op.OptionsType {
			case OptionsFullyConnected:
				op.FusedActivation = ActivationFunction(options.getInt8(fullyConnectedActivation, 0))
			case OptionsSoftmax:
				op.SoftmaxBeta = options.getFloat32(softmaxBeta, 0)
			}
		}
		sg.Operators = append(sg.Operators, op)
	}
	return sg
}

func (m *Model) validate() error {
	if len(m.Subgraphs) == 0 {
		return errors.Wrap(ErrMalformed, "no subgraphs")
	}
	if len(m.Buffers) == 0 || len(m.Buffers[0]) != 0 {
		return errors.Wrap(ErrMalformed, "buffer 0 must be the empty sentinel")
	}
	for _, sg := range m.Subgraphs {
		checkTensor := func(idx int32) error {
			if idx < 0 || int(idx) >= len(sg.Tensors) {
				return errors.Wrapf(ErrMalformed, "subgraph %q: tensor index %d out of range", sg.Name, idx)
			}
			return nil
		}
		for _, t := range sg.Tensors {
			if int(t.Buffer) >= len(m.Buffers) {
				return errors.Wrapf(ErrMalformed, "tensor %q: buffer %d out of range", t.Name, t.Buffer)
			}
		}
		for _, idx := range append(append([]int32(nil), sg.Inputs...), sg.Outputs...) {
			if err := checkTensor(idx); err != nil {
				return err
			}
		}
		for _, op := range sg.Operators {
			if int(op.OpcodeIndex) >= len(m.OperatorCodes) {
				return errors.Wrapf(ErrMalformed, "opcode index %d out of range", op.OpcodeIndex)
			}
			for _, idx := range op.Inputs {
				if idx == OmittedTensor {
					continue
				}
				if err := checkTensor(idx); err != nil {
					return err
				}
			}
			for _, idx := range op.Outputs {
				if err := checkTensor(idx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// InputShape returns the shape of the first input of the main subgraph.
func (m *Model) InputShape() []int32 {
	sg := m.Subgraphs[0]
	if len(sg.Inputs) == 0 {
		return nil
	}
	return sg.Tensors[sg.Inputs[0]].Shape
}

// OutputShape returns the shape of the first output of the main subgraph.
func (m *Model) OutputShape() []int32 {
	sg := m.Subgraphs[0]
	if len(sg.Outputs) == 0 {
		return nil
	}
	return sg.Tensors[sg.Outputs[0]].Shape
}

// Summary renders the main subgraph as one line per operator.
func (m *Model) Summary() string {
	sg := m.Subgraphs[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: input %v output %v\n", sg.Name, m.InputShape(), m.OutputShape())
	for i, op := range sg.Operators {
		fmt.Fprintf(&sb, "%d %s in=%v out=%v", i, m.OperatorCodes[op.OpcodeIndex].Builtin, op.Inputs, op.Outputs)
		if op.OptionsType == OptionsFullyConnected && op.FusedActivation != ActNone {
			fmt.Fprintf(&sb, " fused=%d", op.FusedActivation)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// table adds slot-indexed accessors to a flatbuffers table.
type table struct {
	flatbuffers.Table
}

func (t table) field(slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
}

func (t table) getUint32(slot int, def uint32) uint32 {
	if o := t.field(slot); o != 0 {
		return t.GetUint32(o + t.Pos)
	}
	return def
}

func (t table) getInt32(slot int, def int32) int32 {
	if o := t.field(slot); o != 0 {
		return t.GetInt32(o + t.Pos)
	}
	return def
}

func (t table) getInt8(slot int, def int8) int8 {
	if o := t.field(slot); o != 0 {
		return t.GetInt8(o + t.Pos)
	}
	return def
}

func (t table) getUint8(slot int, def uint8) uint8 {
	if o := t.field(slot); o != 0 {
		return t.GetUint8(o + t.Pos)
	}
	return def
}

func (t table) getFloat32(slot int, def float32) float32 {
	if o := t.field(slot); o != 0 {
		return t.GetFloat32(o + t.Pos)
	}
	return def
}

func (t table) getString(slot int) string {
	if o := t.field(slot); o != 0 {
		return strings.Clone(t.String(o + t.Pos))
	}
	return ""
}

func (t table) getBytes(slot int) []byte {
	if o := t.field(slot); o != 0 {
		return t.ByteVector(o + t.Pos)
	}
	return nil
}

func (t table) int32s(slot int) []int32 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	start := t.Vector(o)
	out := make([]int32, n)
	for i := range out {
		out[i] = t.GetInt32(start + flatbuffers.UOffsetT(i*4))
	}
	return out
}

func (t table) tables(slot int) []table {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	start := t.Vector(o)
	out := make([]table, n)
	for i := range out {
		pos := t.Indirect(start + flatbuffers.UOffsetT(i*4))
		out[i] = table{flatbuffers.Table{Bytes: t.Bytes, Pos: pos}}
	}
	return out
}

func (t table) union(slot int) (table, bool) {
	o := t.field(slot)
	if o == 0 {
		return table{}, false
	}
	var u table
	t.Union(&u.Table, o)
	return u, true
}
