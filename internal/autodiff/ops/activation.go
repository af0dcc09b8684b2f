package ops

import (
	"math"

	"github.com/born-ml/cfconv/internal/tensor"
)

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// SigmoidOp represents output = σ(x). dσ/dx = σ(x)(1 - σ(x)).
type SigmoidOp struct{ base }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the sigmoid gradient from the stored output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := op.output.AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return out[i] * (1 - out[i]) })}
}

// TanhOp represents output = tanh(x). d/dx = 1 - tanh²(x).
type TanhOp struct{ base }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the tanh gradient from the stored output.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := op.output.AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return 1 - out[i]*out[i] })}
}

// SiLUOp represents the SiLU (Swish) activation: y = x * sigmoid(x).
//
//	dy/dx = sigmoid(x) * (1 + x * (1 - sigmoid(x)))
type SiLUOp struct{ base }

// NewSiLUOp creates a new SiLUOp.
func NewSiLUOp(x, output *tensor.RawTensor) *SiLUOp {
	return &SiLUOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the SiLU gradient element-wise.
func (op *SiLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 {
		sig := sigmoid(x[i])
		return sig * (1 + x[i]*(1-sig))
	})}
}

// SoftplusOp represents y = ln(1 + e^x). dy/dx = sigmoid(x).
type SoftplusOp struct{ base }

// NewSoftplusOp creates a new SoftplusOp.
func NewSoftplusOp(x, output *tensor.RawTensor) *SoftplusOp {
	return &SoftplusOp{base{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad_x = outputGrad * sigmoid(x).
func (op *SoftplusOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0].AsFloat64()
	return []*tensor.RawTensor{mapGrad(outputGrad, func(i int) float64 { return sigmoid(x[i]) })}
}
