package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/cfconv/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// The product is delegated to gonum's dense kernel, which dispatches to
// its BLAS implementation. Empty operands (no edges, no atoms) produce a
// zero result without touching gonum, which rejects zero-length matrices.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.MustRaw(tensor.Shape{m, n}, tensor.Float64, cpu.device)
	if m == 0 || n == 0 || k == 0 {
		return result
	}

	am := mat.NewDense(m, k, a.AsFloat64())
	bm := mat.NewDense(k, n, b.AsFloat64())
	out := mat.NewDense(m, n, result.AsFloat64())
	out.Mul(am, bm)

	return result
}

// Transpose swaps the two axes of a 2-D tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got shape %v", shape))
	}
	rows, cols := shape[0], shape[1]

	result := tensor.MustRaw(tensor.Shape{cols, rows}, tensor.Float64, cpu.device)
	src, dst := t.AsFloat64(), result.AsFloat64()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
	return result
}

// Reshape returns a copy of t with a new shape of equal element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	result := tensor.MustRaw(newShape, t.DType(), cpu.device)
	switch t.DType() {
	case tensor.Float64:
		copy(result.AsFloat64(), t.AsFloat64())
	case tensor.Int64:
		copy(result.AsInt64(), t.AsInt64())
	}
	return result
}
