// Package tflite writes and reads the TensorFlow Lite flatbuffer model format
// for the dense networks trained in this repository, and evaluates them with a
// small float32 reference interpreter.
package tflite

import "fmt"

// FileIdentifier is the flatbuffer file identifier of TFLite models.
const FileIdentifier = "TFL3"

// SchemaVersion is the model version written into Model.version.
const SchemaVersion = 3

// BuiltinOperator mirrors the BuiltinOperator enum of the TFLite schema.
type BuiltinOperator int32

const (
	OpFullyConnected BuiltinOperator = 9
	OpLogistic       BuiltinOperator = 14
	OpRelu           BuiltinOperator = 19
	OpSoftmax        BuiltinOperator = 25
	OpTanh           BuiltinOperator = 28
)

var opNames = map[BuiltinOperator]string{
	OpFullyConnected: "FULLY_CONNECTED",
	OpLogistic:       "LOGISTIC",
	OpRelu:           "RELU",
	OpSoftmax:        "SOFTMAX",
	OpTanh:           "TANH",
}

func (op BuiltinOperator) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BuiltinOperator(%d)", int32(op))
}

// ActivationFunction mirrors ActivationFunctionType, the fused activation of
// an operator.
type ActivationFunction int8

const (
	ActNone ActivationFunction = 0
	ActRelu ActivationFunction = 1
	ActTanh ActivationFunction = 4
)

// BuiltinOptions is the union tag of Operator.builtin_options.
type BuiltinOptions uint8

const (
	OptionsNone           BuiltinOptions = 0
	OptionsFullyConnected BuiltinOptions = 8
	OptionsSoftmax        BuiltinOptions = 9
)

// OmittedTensor marks an optional operator input that is not provided, such
// as the bias of a FULLY_CONNECTED without one.
const OmittedTensor int32 = -1

// TensorType mirrors the TensorType enum. Only FLOAT32 is produced.
type TensorType int8

const TensorFloat32 TensorType = 0

// Field slots, in schema declaration order. A union occupies two slots: the
// type tag and the value.
const (
	modelVersion       = 0
	modelOperatorCodes = 1
	modelSubgraphs     = 2
	modelDescription   = 3
	modelBuffers       = 4
	modelNumFields     = 8

	opcodeDeprecatedBuiltin = 0
	opcodeVersion           = 2
	opcodeBuiltin           = 3
	opcodeNumFields         = 4

	subgraphTensors   = 0
	subgraphInputs    = 1
	subgraphOutputs   = 2
	subgraphOperators = 3
	subgraphName      = 4
	subgraphNumFields = 5

	tensorShape          = 0
	tensorType           = 1
	tensorBuffer         = 2
	tensorName           = 3
	tensorShapeSignature = 7
	tensorNumFields      = 8

	operatorOpcodeIndex = 0
	operatorInputs      = 1
	operatorOutputs     = 2
	operatorOptionsType = 3
	operatorOptions     = 4
	operatorNumFields   = 9

	fullyConnectedActivation = 0
	fullyConnectedNumFields  = 4

	softmaxBeta      = 0
	softmaxNumFields = 1

	bufferData      = 0
	bufferNumFields = 3

	// Constant buffers carry force_align: 16 in the schema.
	bufferAlignment = 16
)
