// Package ops defines the differentiable operations recorded by the
// autodiff tape.
//
// Each operation implements the Operation interface:
//   - Forward pass: computed by the backend before the op is recorded
//   - Backward pass: computes gradients for inputs given the output gradient
//
// Supported operations:
//   - element-wise: Add, Sub, Mul, Div (with broadcasting), MulScalar, AddScalar
//   - math: Exp, Log, Sqrt, Cos
//   - activations: Sigmoid, Tanh, SiLU, Softplus
//   - linear algebra and shape: MatMul, Transpose, Reshape, Cat
//   - reductions and indexing: SumDim, IndexSelect, ScatterAdd
package ops

import "github.com/born-ml/cfconv/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor;
	// a nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// base stores the inputs and output every op records.
type base struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns the input tensors.
func (b *base) Inputs() []*tensor.RawTensor {
	return b.inputs
}

// Output returns the output tensor.
func (b *base) Output() *tensor.RawTensor {
	return b.output
}
