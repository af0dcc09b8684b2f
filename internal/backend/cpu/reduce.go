package cpu

import (
	"fmt"

	"github.com/born-ml/cfconv/internal/tensor"
)

// SumDim sums x along dim. With keepDim the reduced axis stays as size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: invalid dimension %d for shape %v", dim, shape))
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}
	size := shape[dim]

	outShape := make(tensor.Shape, 0, ndim)
	for d := 0; d < ndim; d++ {
		switch {
		case d != dim:
			outShape = append(outShape, shape[d])
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result := tensor.MustRaw(outShape, tensor.Float64, cpu.device)
	src, dst := x.AsFloat64(), result.AsFloat64()
	for o := 0; o < outer; o++ {
		for s := 0; s < size; s++ {
			base := (o*size + s) * inner
			for i := 0; i < inner; i++ {
				dst[o*inner+i] += src[base+i]
			}
		}
	}
	return result
}
