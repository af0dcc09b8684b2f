// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float64 arithmetic throughout
//   - NumPy-compatible broadcasting
//   - Row gather and scatter-add for message passing
//   - Matrix products through gonum
//
// The backend holds no mutable state, so one instance can serve any number
// of concurrent forward passes.
package cpu
