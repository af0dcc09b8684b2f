// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/cfconv/internal/tensor"

// Backend defines the interface that all compute backends must implement.
//
// Implementations:
//   - backend/cpu: pure Go kernels, gonum for matrix products
//
// Decorator backends for additional functionality:
//   - autodiff: automatic differentiation (wraps any backend)
type Backend = tensor.Backend
