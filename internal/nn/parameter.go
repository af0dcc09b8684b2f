package nn

import (
	"fmt"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Parameter is a named tensor owned by a module.
//
// Non-trainable parameters (fixed radial basis centers, the reference
// energy table) are saved and loaded like the others but are reported as
// buffers to optimizers.
type Parameter struct {
	name      string
	raw       *tensor.RawTensor
	trainable bool
}

// NewParameter creates a trainable parameter.
func NewParameter(name string, raw *tensor.RawTensor) *Parameter {
	return &Parameter{name: name, raw: raw, trainable: true}
}

// NewBuffer creates a non-trainable parameter.
func NewBuffer(name string, raw *tensor.RawTensor) *Parameter {
	return &Parameter{name: name, raw: raw}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Raw returns the parameter storage.
func (p *Parameter) Raw() *tensor.RawTensor {
	return p.raw
}

// Trainable reports whether gradients should update this parameter.
func (p *Parameter) Trainable() bool {
	return p.trainable
}

// On wraps the parameter with backend b for one computation.
func (p *Parameter) On(b tensor.Backend) *tensor.Tensor {
	return tensor.New(p.raw, b)
}

// WithPrefix returns a view of p named prefix + "." + name sharing storage.
func (p *Parameter) WithPrefix(prefix string) *Parameter {
	if prefix == "" {
		return p
	}
	return &Parameter{name: prefix + "." + p.name, raw: p.raw, trainable: p.trainable}
}

// Load copies data into the parameter after checking shape and dtype.
func (p *Parameter) Load(raw *tensor.RawTensor) error {
	if !raw.Shape().Equal(p.raw.Shape()) {
		return fmt.Errorf("%s: shape mismatch: expected %v, got %v", p.name, p.raw.Shape(), raw.Shape())
	}
	if raw.DType() != p.raw.DType() {
		return fmt.Errorf("%s: dtype mismatch: expected %v, got %v", p.name, p.raw.DType(), raw.DType())
	}
	switch raw.DType() {
	case tensor.Float64:
		copy(p.raw.AsFloat64(), raw.AsFloat64())
	case tensor.Int64:
		copy(p.raw.AsInt64(), raw.AsInt64())
	}
	return nil
}
