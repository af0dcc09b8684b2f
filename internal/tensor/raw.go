package tensor

import "fmt"

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation: a row-major buffer
// plus its shape and runtime dtype.
//
// RawTensors are compared by pointer identity in the autodiff tape, so a
// backend must always return a fresh RawTensor and never write into its
// inputs.
type RawTensor struct {
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	f64    []float64
	i64    []int64
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	r := &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}
	switch dtype {
	case Float64:
		r.f64 = make([]float64, shape.NumElements())
	case Int64:
		r.i64 = make([]int64, shape.NumElements())
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
	return r, nil
}

// MustRaw is like NewRaw but panics on error. Backends use it for result
// allocation where the shape was already checked.
func MustRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Float64Raw wraps data (not copied) as a float64 tensor of the given shape.
func Float64Raw(data []float64, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  Float64,
		device: CPU,
		f64:    data,
	}, nil
}

// Int64Raw wraps data (not copied) as an int64 tensor of the given shape.
func Int64Raw(data []int64, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  Int64,
		device: CPU,
		i64:    data,
	}, nil
}

// MustFloat64Raw is like Float64Raw but panics on error.
func MustFloat64Raw(data []float64, shape Shape) *RawTensor {
	r, err := Float64Raw(data, shape)
	if err != nil {
		panic(err)
	}
	return r
}

// IndexRaw wraps a 1-D index list.
func IndexRaw(index []int64) *RawTensor {
	r, err := Int64Raw(index, Shape{len(index)})
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// AsFloat64 returns the float64 data. The slice aliases the tensor.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return r.f64
}

// AsInt64 returns the int64 data. The slice aliases the tensor.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	return r.i64
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	c := &RawTensor{
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	if r.f64 != nil {
		c.f64 = append([]float64(nil), r.f64...)
	}
	if r.i64 != nil {
		c.i64 = append([]int64(nil), r.i64...)
	}
	return c
}

// View returns a new RawTensor with a different shape over the same data.
// The element count must not change.
func (r *RawTensor) View(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v: element count differs", r.shape, shape)
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
		f64:    r.f64,
		i64:    r.i64,
	}, nil
}
