package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cfconv/internal/parallel"
	"github.com/born-ml/cfconv/internal/tensor"
)

func raw(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.Float64Raw(data, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_BinaryBroadcast(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	col := raw(t, []float64{10, 20}, 2, 1)
	row := raw(t, []float64{1, 2, 3}, 3)

	assert.Equal(t, []float64{11, 12, 13, 24, 25, 26}, backend.Add(a, col).AsFloat64())
	assert.Equal(t, []float64{0, 0, 0, 3, 3, 3}, backend.Sub(a, row).AsFloat64())
	assert.Equal(t, []float64{10, 20, 30, 80, 100, 120}, backend.Mul(a, col).AsFloat64())
	assert.Equal(t, []float64{1, 1, 1, 4, 2.5, 2}, backend.Div(a, row).AsFloat64())
}

func TestCPUBackend_BinaryDoesNotAlias(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2}, 2)
	b := raw(t, []float64{3, 4}, 2)
	out := backend.Add(a, b)
	assert.Equal(t, []float64{1, 2}, a.AsFloat64())
	assert.NotSame(t, a, out)
}

func TestCPUBackend_ParallelMatchesSequential(t *testing.T) {
	n := 10000
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i) * 0.001
	}
	x := raw(t, data, n)

	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16})
	seq := NewWithConfig(parallel.Sequential())
	assert.Equal(t, seq.SiLU(x).AsFloat64(), par.SiLU(x).AsFloat64())
	assert.Equal(t, seq.Add(x, x).AsFloat64(), par.Add(x, x).AsFloat64())
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float64{7, 8, 9, 10, 11, 12}, 3, 2)

	out := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, out.AsFloat64())
}

func TestCPUBackend_MatMulEmpty(t *testing.T) {
	backend := New()
	a := raw(t, nil, 0, 3)
	b := raw(t, []float64{1, 2, 3, 4, 5, 6}, 3, 2)

	out := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{0, 2}, out.Shape())

	assert.Panics(t, func() { backend.MatMul(b, b) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	out := backend.Transpose(a)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, out.AsFloat64())
}

func TestCPUBackend_Activations(t *testing.T) {
	backend := New()
	x := raw(t, []float64{-800, -1, 0, 1, 800}, 5)

	sig := backend.Sigmoid(x).AsFloat64()
	sp := backend.Softplus(x).AsFloat64()
	silu := backend.SiLU(x).AsFloat64()
	for i, v := range x.AsFloat64() {
		assert.False(t, math.IsNaN(sig[i]) || math.IsInf(sig[i], 0), "sigmoid(%v)", v)
		assert.False(t, math.IsNaN(sp[i]) || math.IsInf(sp[i], 0), "softplus(%v)", v)
		assert.InDelta(t, v*sig[i], silu[i], 1e-12)
	}
	assert.InDelta(t, math.Log(2), sp[2], 1e-12)
	assert.InDelta(t, 800, sp[4], 1e-9)
	assert.InDelta(t, 0.5, sig[2], 1e-12)
}

func TestCPUBackend_SumDim(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	rows := backend.SumDim(a, 1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float64{6, 15}, rows.AsFloat64())

	cols := backend.SumDim(a, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float64{5, 7, 9}, cols.AsFloat64())

	empty := backend.SumDim(raw(t, nil, 0, 3), 1, false)
	assert.Equal(t, tensor.Shape{0}, empty.Shape())
}

func TestCPUBackend_IndexSelectScatterAdd(t *testing.T) {
	backend := New()
	x := raw(t, []float64{1, 2, 3, 4, 5, 6}, 3, 2)
	idx := tensor.IndexRaw([]int64{2, 0, 2})

	gathered := backend.IndexSelect(x, idx)
	assert.Equal(t, []float64{5, 6, 1, 2, 5, 6}, gathered.AsFloat64())

	scattered := backend.ScatterAdd(gathered, idx, 4)
	assert.Equal(t, tensor.Shape{4, 2}, scattered.Shape())
	assert.Equal(t, []float64{1, 2, 0, 0, 10, 12, 0, 0}, scattered.AsFloat64())

	assert.Panics(t, func() { backend.IndexSelect(x, tensor.IndexRaw([]int64{3})) })
	assert.Panics(t, func() { backend.ScatterAdd(x, tensor.IndexRaw([]int64{0, 1, 4}), 4) })
}

func TestCPUBackend_Cat(t *testing.T) {
	backend := New()
	a := raw(t, []float64{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float64{5, 6}, 2, 1)

	out := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float64{1, 2, 5, 3, 4, 6}, out.AsFloat64())

	rows := backend.Cat([]*tensor.RawTensor{a, a}, 0)
	assert.Equal(t, tensor.Shape{4, 2}, rows.Shape())
}
