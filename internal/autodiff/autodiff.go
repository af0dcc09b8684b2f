// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and records every
// operation on a GradientTape. Forces are the negative gradient of the
// predicted energy with respect to atom positions, so the whole model runs
// on this backend when derivatives are requested.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, backend)
//	backend.Tape().Watch(x.Raw())
//	y := x.Mul(x) // y = x²
//	grads, _ := autodiff.Grad(backend.Tape(), y.Raw(), x.Raw())
//	// grads[0] = dy/dx = 2x = 4
package autodiff

import (
	"github.com/born-ml/cfconv/internal/autodiff/ops"
	"github.com/born-ml/cfconv/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a
// GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	tape := NewGradientTape()
	tape.backend = backend
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  tape,
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(a, c)
	b.tape.Record(ops.NewAddOp(a, c, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(a, c)
	b.tape.Record(ops.NewSubOp(a, c, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(a, c)
	b.tape.Record(ops.NewMulOp(a, c, result))
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(a, c)
	b.tape.Record(ops.NewDivOp(a, c, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)
	b.tape.Record(ops.NewMatMulOp(a, c, result))
	return result
}

// Reshape reshapes a tensor and records the operation.
//
// Reshape must be recorded: biases are reshaped to [1, out] for
// broadcasting, and the gradient has to reach the original parameter.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.tape.Record(ops.NewReshapeOp(t, result))
	return result
}

// Transpose transposes a 2-D tensor and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Transpose(t)
	b.tape.Record(ops.NewTransposeOp(t, result))
	return result
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	b.tape.Record(ops.NewMulScalarOp(x, result, scalar))
	return result
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	b.tape.Record(ops.NewAddScalarOp(x, result))
	return result
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Exp(x)
	b.tape.Record(ops.NewExpOp(x, result))
	return result
}

// Log computes ln(x) and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Log(x)
	b.tape.Record(ops.NewLogOp(x, result))
	return result
}

// Sqrt computes the square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sqrt(x)
	b.tape.Record(ops.NewSqrtOp(x, result))
	return result
}

// Cos computes the cosine and records the operation.
func (b *AutodiffBackend[B]) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Cos(x)
	b.tape.Record(ops.NewCosOp(x, result))
	return result
}

// Sigmoid applies the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sigmoid(x)
	b.tape.Record(ops.NewSigmoidOp(x, result))
	return result
}

// Tanh applies tanh and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Tanh(x)
	b.tape.Record(ops.NewTanhOp(x, result))
	return result
}

// SiLU applies x * sigmoid(x) and records the operation.
func (b *AutodiffBackend[B]) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.SiLU(x)
	b.tape.Record(ops.NewSiLUOp(x, result))
	return result
}

// Softplus applies ln(1 + e^x) and records the operation.
func (b *AutodiffBackend[B]) Softplus(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Softplus(x)
	b.tape.Record(ops.NewSoftplusOp(x, result))
	return result
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(x, dim, keepDim)
	b.tape.Record(ops.NewSumDimOp(x, result, dim, keepDim))
	return result
}

// IndexSelect gathers rows and records the operation.
func (b *AutodiffBackend[B]) IndexSelect(x, index *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.IndexSelect(x, index)
	if x.DType() == tensor.Float64 {
		b.tape.Record(ops.NewIndexSelectOp(x, index, result))
	}
	return result
}

// ScatterAdd sums rows into buckets and records the operation.
func (b *AutodiffBackend[B]) ScatterAdd(x, index *tensor.RawTensor, n int) *tensor.RawTensor {
	result := b.inner.ScatterAdd(x, index, n)
	b.tape.Record(ops.NewScatterAddOp(x, index, result))
	return result
}

// Cat concatenates tensors and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(tensors, dim)
	b.tape.Record(ops.NewCatOp(append([]*tensor.RawTensor(nil), tensors...), dim, result))
	return result
}
