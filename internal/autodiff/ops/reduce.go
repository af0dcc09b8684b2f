package ops

import "github.com/born-ml/cfconv/internal/tensor"

// SumDimOp represents a reduction sum along a dimension.
//
// Backward: grad_x = broadcast(grad_y, x.shape). With keepDim=false the
// gradient is first viewed with the reduced axis restored as size 1.
type SumDimOp struct {
	base
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	if dim < 0 {
		dim += len(x.Shape())
	}
	return &SumDimOp{base: base{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the output gradient back over the reduced axis.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	xShape := op.inputs[0].Shape()

	kept := xShape.Clone()
	kept[op.dim] = 1
	grad, err := outputGrad.View(kept)
	if err != nil {
		panic("sumdim backward: " + err.Error())
	}

	result := tensor.MustRaw(xShape, tensor.Float64, outputGrad.Device())
	dst := result.AsFloat64()
	src := grad.AsFloat64()
	xStrides := xShape.ComputeStrides()
	keptStrides := kept.ComputeStrides()
	for i := range dst {
		dst[i] = src[tensor.BroadcastIndex(i, xShape, xStrides, kept, keptStrides)]
	}
	return []*tensor.RawTensor{result}
}
