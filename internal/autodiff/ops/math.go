package ops

import (
	"math"

	"github.com/born-ml/cfconv/internal/tensor"
)

// ExpOp represents output = e^x. d/dx = e^x = output.
type ExpOp struct{ base }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad_x = outputGrad * output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := op.output.AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return out[i] })}
}

// LogOp represents output = ln(x). d/dx = 1/x.
type LogOp struct{ base }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad_x = outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return 1 / x[i] })}
}

// SqrtOp represents output = sqrt(x). d/dx = 1 / (2 sqrt(x)).
//
// The gradient is infinite at x = 0; callers computing distances must not
// feed coincident points.
type SqrtOp struct{ base }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad_x = outputGrad * 0.5 / output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := op.output.AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return 0.5 / out[i] })}
}

// CosOp represents output = cos(x). d/dx = -sin(x).
type CosOp struct{ base }

// NewCosOp creates a new CosOp.
func NewCosOp(x, output *tensor.RawTensor) *CosOp {
	return &CosOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad_x = -outputGrad * sin(x).
func (op *CosOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return -math.Sin(x[i]) })}
}
