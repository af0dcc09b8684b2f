// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation using a
// gradient tape. It wraps any backend to add autodiff capabilities.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, backend)
//	backend.Tape().Watch(x.Raw())
//	y := x.Mul(x)
//	grads, _ := autodiff.Grad(backend.Tape(), y.Raw(), x.Raw()) // [4]
package autodiff

import (
	"github.com/born-ml/cfconv/internal/autodiff"
	"github.com/born-ml/cfconv/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// Errors returned by Grad.
var (
	ErrNotTracked    = autodiff.ErrNotTracked
	ErrGraphReleased = autodiff.ErrGraphReleased
	ErrEmptyTape     = autodiff.ErrEmptyTape
)

// Grad computes d(sum(output))/d(input) for each watched input.
func Grad(tape *GradientTape, output *tensor.RawTensor, inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return autodiff.Grad(tape, output, inputs...)
}
