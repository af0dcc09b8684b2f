// Package cpu implements the float64 CPU backend. Matrix products go
// through gonum; element-wise kernels are split with internal/parallel.
package cpu

import (
	"fmt"

	"github.com/born-ml/cfconv/internal/parallel"
	"github.com/born-ml/cfconv/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// The backend holds no mutable state, so one instance can serve any
// number of concurrent forward passes.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, func(x, y float64) float64 { return x / y })
}

// binary applies f element-wise, broadcasting a and b to a common shape.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, f func(x, y float64) float64) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := tensor.MustRaw(outShape, tensor.Float64, cpu.device)
	out := result.AsFloat64()
	aData, bData := a.AsFloat64(), b.AsFloat64()

	if !needsBroadcast {
		parallel.Range(len(out), func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = f(aData[i], bData[i])
			}
		}, cpu.par)
		return result
	}

	outStrides := outShape.ComputeStrides()
	aShape, aStrides := a.Shape(), a.Strides()
	bShape, bStrides := b.Shape(), b.Strides()
	parallel.Range(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			ai := tensor.BroadcastIndex(i, outShape, outStrides, aShape, aStrides)
			bi := tensor.BroadcastIndex(i, outShape, outStrides, bShape, bStrides)
			out[i] = f(aData[ai], bData[bi])
		}
	}, cpu.par)
	return result
}
