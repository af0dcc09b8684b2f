package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every method returns a freshly allocated RawTensor; inputs are never
// modified. Shape mismatches are programmer errors and panic.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies two 2-D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor) *RawTensor // 2-D only

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor

	// Activation functions
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	SiLU(x *RawTensor) *RawTensor
	Softplus(x *RawTensor) *RawTensor

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Indexing operations along dimension 0.
	//
	// IndexSelect gathers rows: out[i] = x[index[i]].
	// ScatterAdd sums rows into n buckets: out[index[i]] += x[i];
	// buckets that receive nothing stay zero.
	IndexSelect(x, index *RawTensor) *RawTensor
	ScatterAdd(x, index *RawTensor, n int) *RawTensor

	// Cat concatenates 2-D tensors along dim (0 or 1).
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
