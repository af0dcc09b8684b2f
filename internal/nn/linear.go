package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [rows, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the optional bias vector with shape [out_features]
//   - y is the output tensor with shape [rows, out_features]
//
// Weights are initialized using Xavier/Glorot uniform initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter
}

// NewLinear creates a new Linear layer with initialized weights.
func NewLinear(inFeatures, outFeatures int, bias bool, rng *rand.Rand) *Linear {
	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", tensor.MustRaw(tensor.Shape{outFeatures, inFeatures}, tensor.Float64, tensor.CPU)),
	}
	if bias {
		l.bias = NewParameter("bias", tensor.MustRaw(tensor.Shape{outFeatures}, tensor.Float64, tensor.CPU))
	}
	l.ResetParameters(rng)
	return l
}

// ResetParameters re-draws the weight and zeroes the bias.
func (l *Linear) ResetParameters(rng *rand.Rand) {
	XavierUniform(l.weight.Raw(), rng)
	if l.bias != nil {
		Fill(l.bias.Raw(), 0)
	}
}

// Forward computes the output of the linear layer on the backend of input.
//
// Input shape: [rows, in_features]; zero rows are allowed.
// Output shape: [rows, out_features].
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [rows, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	b := input.Backend()
	output := input.MatMul(l.weight.On(b).T())
	if l.bias != nil {
		output = output.Add(l.bias.On(b).Reshape(1, l.outFeatures))
	}
	return output
}

// Parameters returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear) Bias() *Parameter {
	return l.bias
}
