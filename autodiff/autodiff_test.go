// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cfconv/autodiff"
	"github.com/born-ml/cfconv/backend/cpu"
	"github.com/born-ml/cfconv/tensor"
)

func TestGrad_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{2, -3}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	backend.Tape().Watch(x.Raw())
	y := x.Mul(x)

	grads, err := autodiff.Grad(backend.Tape(), y.Raw(), x.Raw())
	require.NoError(t, err)
	assert.Equal(t, []float64{4, -6}, grads[0].AsFloat64())

	backend.Tape().Release()
	_, err = autodiff.Grad(backend.Tape(), y.Raw(), x.Raw())
	assert.ErrorIs(t, err, autodiff.ErrGraphReleased)
}
