package tensor

import "fmt"

// Tensor pairs a RawTensor with the backend that computes on it.
//
// Model parameters are stored as RawTensors and wrapped with the backend
// of the current call, so the same weights can run on a plain backend or
// on a recording autodiff backend.
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
//	y := x.MatMul(x.T()).Exp()
type Tensor struct {
	raw     *RawTensor
	backend Backend
}

// New creates a Tensor from a RawTensor and backend.
func New(raw *RawTensor, b Backend) *Tensor {
	return &Tensor{raw: raw, backend: b}
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor) Backend() Backend {
	return t.backend
}

// Data returns the float64 data. The slice aliases the tensor.
func (t *Tensor) Data() []float64 {
	return t.raw.AsFloat64()
}

// At returns the float64 element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}

	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return t.Data()[offset]
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.backend.Name())
}

func (t *Tensor) wrap(raw *RawTensor) *Tensor {
	return &Tensor{raw: raw, backend: t.backend}
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div performs element-wise division with broadcasting.
func (t *Tensor) Div(other *Tensor) *Tensor {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// MatMul performs 2-D matrix multiplication.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// T returns the transpose of a 2-D tensor.
func (t *Tensor) T() *Tensor {
	return t.wrap(t.backend.Transpose(t.raw))
}

// Reshape returns the tensor with a new shape.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	return t.wrap(t.backend.Reshape(t.raw, Shape(dims)))
}

// MulScalar multiplies every element by s.
func (t *Tensor) MulScalar(s float64) *Tensor {
	return t.wrap(t.backend.MulScalar(t.raw, s))
}

// AddScalar adds s to every element.
func (t *Tensor) AddScalar(s float64) *Tensor {
	return t.wrap(t.backend.AddScalar(t.raw, s))
}

// Exp computes e^x element-wise.
func (t *Tensor) Exp() *Tensor {
	return t.wrap(t.backend.Exp(t.raw))
}

// Log computes the natural logarithm element-wise.
func (t *Tensor) Log() *Tensor {
	return t.wrap(t.backend.Log(t.raw))
}

// Sqrt computes the square root element-wise.
func (t *Tensor) Sqrt() *Tensor {
	return t.wrap(t.backend.Sqrt(t.raw))
}

// Cos computes the cosine element-wise.
func (t *Tensor) Cos() *Tensor {
	return t.wrap(t.backend.Cos(t.raw))
}

// Sigmoid applies 1 / (1 + e^-x).
func (t *Tensor) Sigmoid() *Tensor {
	return t.wrap(t.backend.Sigmoid(t.raw))
}

// Tanh applies the hyperbolic tangent.
func (t *Tensor) Tanh() *Tensor {
	return t.wrap(t.backend.Tanh(t.raw))
}

// SiLU applies x * sigmoid(x).
func (t *Tensor) SiLU() *Tensor {
	return t.wrap(t.backend.SiLU(t.raw))
}

// Softplus applies ln(1 + e^x).
func (t *Tensor) Softplus() *Tensor {
	return t.wrap(t.backend.Softplus(t.raw))
}

// SumDim sums along dim.
func (t *Tensor) SumDim(dim int, keepDim bool) *Tensor {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// IndexSelect gathers rows by index.
func (t *Tensor) IndexSelect(index *RawTensor) *Tensor {
	return t.wrap(t.backend.IndexSelect(t.raw, index))
}

// ScatterAdd sums rows into n buckets given by index.
func (t *Tensor) ScatterAdd(index *RawTensor, n int) *Tensor {
	return t.wrap(t.backend.ScatterAdd(t.raw, index, n))
}

// Cat concatenates t and others along dim.
func (t *Tensor) Cat(dim int, others ...*Tensor) *Tensor {
	raws := make([]*RawTensor, 0, len(others)+1)
	raws = append(raws, t.raw)
	for _, o := range others {
		raws = append(raws, o.raw)
	}
	return t.wrap(t.backend.Cat(raws, dim))
}
