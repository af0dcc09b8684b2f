// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cfconv/backend/cpu"
	"github.com/born-ml/cfconv/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = cpu.New()
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float64, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 48, raw.ByteSize())
}

func TestTensorOps(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	y := x.MatMul(x.T())
	assert.Equal(t, []float64{5, 11, 11, 25}, y.Data())

	z := tensor.Ones(tensor.Shape{2, 2}, backend).Add(tensor.Zeros(tensor.Shape{1, 2}, backend))
	assert.Equal(t, []float64{1, 1, 1, 1}, z.Data())

	v := tensor.FromVec3([][3]float64{{1, 2, 3}}, backend)
	assert.Equal(t, tensor.Shape{1, 3}, v.Shape())
}
