package cpu

import (
	"fmt"

	"github.com/born-ml/cfconv/internal/tensor"
)

// rowWidth returns the number of elements per row (product of dims 1..n).
func rowWidth(shape tensor.Shape) int {
	w := 1
	for _, d := range shape[1:] {
		w *= d
	}
	return w
}

// IndexSelect gathers rows of x: out[i] = x[index[i]].
func (cpu *CPUBackend) IndexSelect(x, index *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("index_select: scalar input")
	}
	idx := index.AsInt64()
	rows := shape[0]
	width := rowWidth(shape)

	outShape := shape.Clone()
	outShape[0] = len(idx)
	result := tensor.MustRaw(outShape, x.DType(), cpu.device)

	for _, j := range idx {
		if j < 0 || int(j) >= rows {
			panic(fmt.Sprintf("index_select: index %d out of range [0, %d)", j, rows))
		}
	}

	switch x.DType() {
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, j := range idx {
			copy(dst[i*width:(i+1)*width], src[int(j)*width:(int(j)+1)*width])
		}
	case tensor.Int64:
		src, dst := x.AsInt64(), result.AsInt64()
		for i, j := range idx {
			copy(dst[i*width:(i+1)*width], src[int(j)*width:(int(j)+1)*width])
		}
	}
	return result
}

// ScatterAdd sums rows of x into n buckets: out[index[i]] += x[i].
// Buckets that receive no rows are zero.
func (cpu *CPUBackend) ScatterAdd(x, index *tensor.RawTensor, n int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("scatter_add: scalar input")
	}
	idx := index.AsInt64()
	if len(idx) != shape[0] {
		panic(fmt.Sprintf("scatter_add: %d indices for %d rows", len(idx), shape[0]))
	}
	width := rowWidth(shape)

	outShape := shape.Clone()
	outShape[0] = n
	result := tensor.MustRaw(outShape, tensor.Float64, cpu.device)
	src, dst := x.AsFloat64(), result.AsFloat64()

	for i, j := range idx {
		if j < 0 || int(j) >= n {
			panic(fmt.Sprintf("scatter_add: index %d out of range [0, %d)", j, n))
		}
		row := dst[int(j)*width : (int(j)+1)*width]
		for k, v := range src[i*width : (i+1)*width] {
			row[k] += v
		}
	}
	return result
}

// Cat concatenates 2-D float64 tensors along dim 0 or 1.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors")
	}
	for _, t := range tensors {
		if len(t.Shape()) != 2 {
			panic(fmt.Sprintf("cat: only 2D tensors supported, got shape %v", t.Shape()))
		}
	}

	switch dim {
	case 0:
		cols := tensors[0].Shape()[1]
		rows := 0
		for _, t := range tensors {
			if t.Shape()[1] != cols {
				panic(fmt.Sprintf("cat: column mismatch %d vs %d", t.Shape()[1], cols))
			}
			rows += t.Shape()[0]
		}
		result := tensor.MustRaw(tensor.Shape{rows, cols}, tensor.Float64, cpu.device)
		dst := result.AsFloat64()
		offset := 0
		for _, t := range tensors {
			offset += copy(dst[offset:], t.AsFloat64())
		}
		return result

	case 1, -1:
		rows := tensors[0].Shape()[0]
		cols := 0
		for _, t := range tensors {
			if t.Shape()[0] != rows {
				panic(fmt.Sprintf("cat: row mismatch %d vs %d", t.Shape()[0], rows))
			}
			cols += t.Shape()[1]
		}
		result := tensor.MustRaw(tensor.Shape{rows, cols}, tensor.Float64, cpu.device)
		dst := result.AsFloat64()
		for r := 0; r < rows; r++ {
			offset := r * cols
			for _, t := range tensors {
				w := t.Shape()[1]
				offset += copy(dst[offset:offset+w], t.AsFloat64()[r*w:(r+1)*w])
			}
		}
		return result

	default:
		panic(fmt.Sprintf("cat: invalid dimension %d", dim))
	}
}
