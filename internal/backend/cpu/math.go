package cpu

import (
	"math"

	"github.com/born-ml/cfconv/internal/parallel"
	"github.com/born-ml/cfconv/internal/tensor"
)

// unary applies f element-wise into a fresh tensor.
func (cpu *CPUBackend) unary(x *tensor.RawTensor, f func(v float64) float64) *tensor.RawTensor {
	result := tensor.MustRaw(x.Shape(), tensor.Float64, cpu.device)
	src, dst := x.AsFloat64(), result.AsFloat64()
	parallel.Range(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i])
		}
	}, cpu.par)
	return result
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary(x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary(x, func(v float64) float64 { return v + scalar })
}

// Exp computes e^x.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, math.Exp)
}

// Log computes ln(x).
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, math.Log)
}

// Sqrt computes the square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, math.Sqrt)
}

// Cos computes the cosine.
func (cpu *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, math.Cos)
}

// Sigmoid computes 1 / (1 + e^-x).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, Sigmoid)
}

// Tanh computes the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, math.Tanh)
}

// SiLU computes x * sigmoid(x).
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, func(v float64) float64 { return v * Sigmoid(v) })
}

// Softplus computes ln(1 + e^x).
func (cpu *CPUBackend) Softplus(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, Softplus)
}

// Sigmoid is the scalar logistic function, stable for large |v|.
func Sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// Softplus is the scalar ln(1 + e^v), stable for large |v|.
func Softplus(v float64) float64 {
	// max(v, 0) + log1p(exp(-|v|))
	return math.Max(v, 0) + math.Log1p(math.Exp(-math.Abs(v)))
}
