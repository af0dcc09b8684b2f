package ops

import "github.com/born-ml/cfconv/internal/tensor"

// IndexSelectOp gathers rows: output[i] = x[index[i]].
//
// Backward: scatter-add the output gradient back to the selected rows.
// Rows selected several times (an atom that sends along many edges)
// accumulate every contribution.
type IndexSelectOp struct {
	base
	index *tensor.RawTensor
}

// NewIndexSelectOp creates a new IndexSelectOp. The index is not an input:
// no gradient flows to integer indices.
func NewIndexSelectOp(x, index, output *tensor.RawTensor) *IndexSelectOp {
	return &IndexSelectOp{base: base{inputs: []*tensor.RawTensor{x}, output: output}, index: index}
}

// Backward computes grad_x = ScatterAdd(outputGrad, index, rows(x)).
func (op *IndexSelectOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	rows := op.inputs[0].Shape()[0]
	return []*tensor.RawTensor{backend.ScatterAdd(outputGrad, op.index, rows)}
}

// ScatterAddOp sums rows into buckets: output[index[i]] += x[i].
//
// Backward: every source row receives the gradient of its bucket.
type ScatterAddOp struct {
	base
	index *tensor.RawTensor
}

// NewScatterAddOp creates a new ScatterAddOp.
func NewScatterAddOp(x, index, output *tensor.RawTensor) *ScatterAddOp {
	return &ScatterAddOp{base: base{inputs: []*tensor.RawTensor{x}, output: output}, index: index}
}

// Backward computes grad_x = IndexSelect(outputGrad, index).
func (op *ScatterAddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.IndexSelect(outputGrad, op.index)}
}

// CatOp concatenates 2-D tensors along dim 0 or 1.
//
// Backward: the output gradient is split at the input boundaries.
type CatOp struct {
	base
	dim int
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, dim int, output *tensor.RawTensor) *CatOp {
	if dim < 0 {
		dim += 2
	}
	return &CatOp{base: base{inputs: inputs, output: output}, dim: dim}
}

// Backward splits the gradient into one slice per input.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	src := outputGrad.AsFloat64()
	total := outputGrad.Shape()[1]

	offset := 0
	for i, in := range op.inputs {
		shape := in.Shape()
		g := tensor.MustRaw(shape, tensor.Float64, outputGrad.Device())
		dst := g.AsFloat64()
		if op.dim == 0 {
			offset += copy(dst, src[offset:offset+len(dst)])
		} else {
			rows, w := shape[0], shape[1]
			for r := 0; r < rows; r++ {
				copy(dst[r*w:(r+1)*w], src[r*total+offset:r*total+offset+w])
			}
			offset += w
		}
		grads[i] = g
	}
	return grads
}
