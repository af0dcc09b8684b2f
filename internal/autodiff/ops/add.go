package ops

import "github.com/born-ml/cfconv/internal/tensor"

// AddOp represents an element-wise addition: output = a + b.
//
// Backward pass: gradient flows unchanged to both inputs, summed over any
// broadcast dimensions.
type AddOp struct{ base }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{base{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes input gradients for addition.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.inputs[0].Shape()),
		reduceBroadcast(outputGrad, op.inputs[1].Shape()),
	}
}

// SubOp represents an element-wise subtraction: output = a - b.
type SubOp struct{ base }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{base{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes input gradients for subtraction: grad_a = grad, grad_b = -grad.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.inputs[0].Shape()),
		reduceBroadcast(backend.MulScalar(outputGrad, -1), op.inputs[1].Shape()),
	}
}
