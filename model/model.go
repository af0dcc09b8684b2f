// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the public API for continuous-filter graph
// convolution potentials.
//
// A Model maps atomic numbers and Cartesian positions to one scalar per
// molecule (an energy, or a dipole magnitude) and, when configured with
// Derivative, to the forces on each atom.
//
// Example:
//
//	cfg := model.DefaultConfig()
//	cfg.Derivative = true
//	m, err := model.New(cfg, cpu.New())
//	if err != nil {
//	    return err
//	}
//	pred, err := m.Forward(model.System{
//	    AtomicNumbers: []int64{8, 1, 1},
//	    Positions:     [][3]float64{{0, 0, 0}, {0.96, 0, 0}, {-0.24, 0.93, 0}},
//	})
//	fmt.Println(pred.Energy[0], pred.Forces)
package model

import (
	"github.com/born-ml/cfconv/internal/schnet"
	"github.com/born-ml/cfconv/tensor"
)

// Model is a continuous-filter graph convolution network.
type Model = schnet.Model

// Config holds the hyperparameters of a Model.
type Config = schnet.Config

// ConfigError reports an invalid configuration field.
type ConfigError = schnet.ConfigError

// System is one batch of atoms, optionally split into molecules.
type System = schnet.System

// Prediction is the result of Model.Forward.
type Prediction = schnet.Prediction

// ErrInvalidInput is returned by Forward when the system is malformed.
var ErrInvalidInput = schnet.ErrInvalidInput

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return schnet.DefaultConfig()
}

// ParseConfig decodes a YAML configuration on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	return schnet.ParseConfig(data)
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return schnet.LoadConfig(path)
}

// New validates cfg and builds a freshly initialized model.
func New(cfg Config, backend tensor.Backend) (*Model, error) {
	return schnet.New(cfg, backend)
}

// Load reads a model saved with Model.Save.
func Load(path string, backend tensor.Backend) (*Model, error) {
	return schnet.Load(path, backend)
}
