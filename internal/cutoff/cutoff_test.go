package cutoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/cfconv/internal/autodiff"
	"github.com/born-ml/cfconv/internal/backend/cpu"
	"github.com/born-ml/cfconv/internal/tensor"
)

func TestCosine_Eval(t *testing.T) {
	c, err := New(0, 5)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.Eval(0), 1e-15)
	assert.InDelta(t, 0.5, c.Eval(2.5), 1e-15)
	assert.InDelta(t, 0.0, c.Eval(5), 1e-15)
	assert.Zero(t, c.Eval(7))

	// Monotone decreasing on [0, upper].
	prev := c.Eval(0)
	for d := 0.1; d < 5; d += 0.1 {
		v := c.Eval(d)
		assert.LessOrEqual(t, v, prev)
		prev = v
	}
}

func TestCosine_LowerBound(t *testing.T) {
	c, err := New(1, 3)
	require.NoError(t, err)

	assert.Zero(t, c.Eval(0.5))
	assert.Zero(t, c.Eval(1))
	assert.InDelta(t, 1.0, c.Eval(2), 1e-15)
	assert.InDelta(t, 0.0, c.Eval(2.999999), 1e-9)
	assert.Zero(t, c.Eval(3))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(5, 5)
	require.Error(t, err)
	_, err = New(-1, 5)
	require.Error(t, err)
}

func TestCosine_ForwardMatchesEval(t *testing.T) {
	backend := cpu.New()
	for _, c := range []Cosine{{0, 5}, {1, 3}} {
		dist := []float64{0, 0.5, 1.5, 2, 2.9, 3, 4.9, 5, 6}
		d, err := tensor.FromSlice(dist, tensor.Shape{len(dist)}, backend)
		require.NoError(t, err)

		got := c.Forward(d).Data()
		for i, v := range dist {
			assert.InDelta(t, c.Eval(v), got[i], 1e-15, "d=%g", v)
		}
	}
}

func TestCosine_ForwardEmpty(t *testing.T) {
	backend := cpu.New()
	c := Cosine{0, 5}
	out := c.Forward(tensor.Zeros(tensor.Shape{0}, backend))
	assert.Equal(t, tensor.Shape{0}, out.Shape())
}

func TestCosine_Gradient(t *testing.T) {
	for _, c := range []Cosine{{0, 5}, {1, 3}} {
		for _, d0 := range []float64{0.3, 1.7, 2.6, 4.2} {
			ad := autodiff.New(cpu.New())
			tape := ad.Tape()
			tape.StartRecording()

			d, err := tensor.FromSlice([]float64{d0}, tensor.Shape{1}, ad)
			require.NoError(t, err)
			tape.Watch(d.Raw())

			y := c.Forward(d)
			grads, err := autodiff.Grad(tape, y.Raw(), d.Raw())
			require.NoError(t, err)

			want := fd.Derivative(c.Eval, d0, &fd.Settings{Formula: fd.Central, Step: 1e-6})
			assert.InDelta(t, want, grads[0].AsFloat64()[0], 1e-6, "cutoff %v at %g", c, d0)
		}
	}
}
