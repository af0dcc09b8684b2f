// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/cfconv/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Typed data access via AsFloat64() and AsInt64()
//   - Deep copies via Clone()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, tensor.CPU)
//	data := raw.AsFloat64()
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Float64Raw wraps data (not copied) as a float64 RawTensor.
func Float64Raw(data []float64, shape Shape) (*RawTensor, error) {
	return tensor.Float64Raw(data, shape)
}

// Int64Raw wraps data (not copied) as an int64 RawTensor.
func Int64Raw(data []int64, shape Shape) (*RawTensor, error) {
	return tensor.Int64Raw(data, shape)
}
