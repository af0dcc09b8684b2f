package ops

import (
	"github.com/born-ml/cfconv/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	result := tensor.MustRaw(targetShape, tensor.Float64, grad.Device())
	dst := result.AsFloat64()
	src := grad.AsFloat64()
	gradStrides := gradShape.ComputeStrides()
	targetStrides := targetShape.ComputeStrides()
	for i, v := range src {
		dst[tensor.BroadcastIndex(i, gradShape, gradStrides, targetShape, targetStrides)] += v
	}
	return result
}

// mapGrad builds grad_x[i] = outputGrad[i] * f(i) element-wise.
func mapGrad(outputGrad *tensor.RawTensor, f func(i int) float64) *tensor.RawTensor {
	result := tensor.MustRaw(outputGrad.Shape(), tensor.Float64, outputGrad.Device())
	dst := result.AsFloat64()
	for i, g := range outputGrad.AsFloat64() {
		dst[i] = g * f(i)
	}
	return result
}
