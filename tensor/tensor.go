// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensors consumed and
// produced by cfconv models.
//
// The package defines:
//   - Tensor: a RawTensor paired with the backend computing on it
//   - RawTensor: row-major float64 or int64 storage
//   - Backend: interface for compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
//	y := x.MatMul(x.T()).Exp()
package tensor

import (
	"github.com/born-ml/cfconv/internal/tensor"
)

// Tensor pairs a RawTensor with the backend that computes on it.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float64 DataType = tensor.Float64
	Int64   DataType = tensor.Int64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only device.
const CPU Device = tensor.CPU

// New wraps raw with backend b.
func New(raw *RawTensor, b Backend) *Tensor {
	return tensor.New(raw, b)
}

// FromSlice creates a float64 tensor from a copy of data.
func FromSlice(data []float64, shape Shape, b Backend) (*Tensor, error) {
	return tensor.FromSlice(data, shape, b)
}

// FromVec3 packs 3-vectors into an [N, 3] tensor.
func FromVec3(v [][3]float64, b Backend) *Tensor {
	return tensor.FromVec3(v, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, b Backend) *Tensor {
	return tensor.Zeros(shape, b)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, b Backend) *Tensor {
	return tensor.Ones(shape, b)
}
