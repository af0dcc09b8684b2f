package ops

import "github.com/born-ml/cfconv/internal/tensor"

// MatMulOp represents a matrix multiplication operation: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
type MatMulOp struct{ base }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{base{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.MatMul(outputGrad, backend.Transpose(b))
	gradB := backend.MatMul(backend.Transpose(a), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}

// TransposeOp represents a 2-D transpose. Its gradient is the transposed
// output gradient.
//
// Linear layers transpose their weight on every call; without this op the
// gradient would land on the transposed copy instead of the parameter.
type TransposeOp struct{ base }

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(x, output *tensor.RawTensor) *TransposeOp {
	return &TransposeOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward transposes the gradient back.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Transpose(outputGrad)}
}

// ReshapeOp represents a reshape. Its gradient is the output gradient
// reshaped to the input shape.
type ReshapeOp struct{ base }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward reshapes the gradient to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}
