package tensor

import "fmt"

// FromSlice creates a float64 tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape, b Backend) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, Float64, b.Device())
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat64(), data)
	return New(raw, b), nil
}

// FromVec3 packs a list of 3-vectors into an [N, 3] tensor.
func FromVec3(v [][3]float64, b Backend) *Tensor {
	raw := MustRaw(Shape{len(v), 3}, Float64, b.Device())
	data := raw.AsFloat64()
	for i, p := range v {
		copy(data[3*i:3*i+3], p[:])
	}
	return New(raw, b)
}

// ToVec3 unpacks an [N, 3] float64 tensor.
func ToVec3(r *RawTensor) [][3]float64 {
	shape := r.Shape()
	if len(shape) != 2 || shape[1] != 3 {
		panic(fmt.Sprintf("ToVec3: expected [N, 3], got %v", shape))
	}
	data := r.AsFloat64()
	out := make([][3]float64, shape[0])
	for i := range out {
		copy(out[i][:], data[3*i:3*i+3])
	}
	return out
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, b Backend) *Tensor {
	return New(MustRaw(shape, Float64, b.Device()), b)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64, b Backend) *Tensor {
	raw := MustRaw(shape, Float64, b.Device())
	data := raw.AsFloat64()
	for i := range data {
		data[i] = value
	}
	return New(raw, b)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, b Backend) *Tensor {
	return Full(shape, 1, b)
}
