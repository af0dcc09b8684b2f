package rbf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/cfconv/internal/autodiff"
	"github.com/born-ml/cfconv/internal/backend/cpu"
	"github.com/born-ml/cfconv/internal/cutoff"
	"github.com/born-ml/cfconv/internal/tensor"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("gauss")
	require.NoError(t, err)
	assert.Equal(t, Gauss, k)

	k, err = ParseKind("expnorm")
	require.NoError(t, err)
	assert.Equal(t, ExpNorm, k)

	_, err = ParseKind("bessel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gauss, expnorm")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Gauss, 0, 5, 0, false)
	require.Error(t, err)
	_, err = New(ExpNorm, 5, 5, 10, false)
	require.Error(t, err)
}

func TestGaussian_Values(t *testing.T) {
	g := NewGaussian(0, 5, 6, false)
	offset := g.offset.Raw().AsFloat64()
	assert.InDeltaSlice(t, []float64{0, 1, 2, 3, 4, 5}, offset, 1e-12)
	assert.InDelta(t, -0.5, g.coeff.Raw().AsFloat64()[0], 1e-12)

	d, err := tensor.FromSlice([]float64{0, 2.5}, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)

	out := g.Forward(d)
	require.Equal(t, tensor.Shape{2, 6}, out.Shape())
	for i, dist := range []float64{0, 2.5} {
		for k, o := range offset {
			want := math.Exp(-0.5 * (dist - o) * (dist - o))
			assert.InDelta(t, want, out.At(i, k), 1e-12)
		}
	}
	// The center nearest a distance carries the largest feature.
	assert.Equal(t, 0, floats.MaxIdx(out.Data()[:6]))
}

func TestGaussian_SingleCenter(t *testing.T) {
	g := NewGaussian(0, 5, 1, false)
	assert.Equal(t, 1, g.NumRBF())
	assert.InDelta(t, -0.5, g.coeff.Raw().AsFloat64()[0], 1e-12)
	assert.False(t, math.IsNaN(g.coeff.Raw().AsFloat64()[0]))
}

func TestExpNormal_Values(t *testing.T) {
	const lower, upper, n = 0.0, 5.0, 8
	e := NewExpNormal(lower, upper, n, false)

	start := math.Exp(-upper + lower)
	means := e.means.Raw().AsFloat64()
	assert.InDelta(t, start, means[0], 1e-12)
	assert.InDelta(t, 1.0, means[n-1], 1e-12)

	beta := math.Pow(2.0/n*(1-start), -2)
	for _, b := range e.betas.Raw().AsFloat64() {
		assert.InDelta(t, beta, b, 1e-9)
	}

	dist := []float64{0.7, 3.1, 5.0, 6.0}
	d, err := tensor.FromSlice(dist, tensor.Shape{len(dist)}, cpu.New())
	require.NoError(t, err)

	out := e.Forward(d)
	env := cutoff.Cosine{Lower: 0, Upper: upper}
	alpha := 5.0 / (upper - lower)
	for i, r := range dist {
		for k := range n {
			x := math.Exp(alpha*(lower-r)) - means[k]
			want := env.Eval(r) * math.Exp(-beta*x*x)
			assert.InDelta(t, want, out.At(i, k), 1e-12)
		}
	}

	// Features vanish at and beyond the cutoff.
	for k := range n {
		assert.Zero(t, out.At(2, k))
		assert.Zero(t, out.At(3, k))
	}
}

func TestExpansion_Empty(t *testing.T) {
	for _, kind := range []Kind{Gauss, ExpNorm} {
		exp, err := New(kind, 0, 5, 4, false)
		require.NoError(t, err)
		out := exp.Forward(tensor.Zeros(tensor.Shape{0}, cpu.New()))
		assert.Equal(t, tensor.Shape{0, 4}, out.Shape())
	}
}

func TestExpansion_Trainable(t *testing.T) {
	for _, kind := range []Kind{Gauss, ExpNorm} {
		t.Run(kind.String(), func(t *testing.T) {
			exp, err := New(kind, 0, 5, 4, true)
			require.NoError(t, err)

			ad := autodiff.New(cpu.New())
			tape := ad.Tape()
			tape.StartRecording()

			params := exp.Parameters()
			require.Len(t, params, 2)
			raws := make([]*tensor.RawTensor, len(params))
			for i, p := range params {
				assert.True(t, p.Trainable())
				raws[i] = p.Raw()
				tape.Watch(raws[i])
			}

			d, err := tensor.FromSlice([]float64{0.5, 1.3, 2.2}, tensor.Shape{3}, ad)
			require.NoError(t, err)

			y := exp.Forward(d).SumDim(1, false).SumDim(0, false)
			grads, err := autodiff.Grad(tape, y.Raw(), raws...)
			require.NoError(t, err)

			for i, g := range grads {
				assert.Equal(t, raws[i].Shape(), g.Shape())
				assert.NotZero(t, floats.Norm(g.AsFloat64(), 2), "%s has no gradient", params[i].Name())
			}
		})
	}
}

func TestExpansion_Buffers(t *testing.T) {
	exp, err := New(Gauss, 0, 5, 4, false)
	require.NoError(t, err)
	for _, p := range exp.Parameters() {
		assert.False(t, p.Trainable())
	}

	// Reset restores the analytic values after modification.
	g := exp.(*Gaussian)
	g.offset.Raw().AsFloat64()[1] = 42
	exp.ResetParameters()
	assert.InDelta(t, 5.0/3.0, g.offset.Raw().AsFloat64()[1], 1e-12)
}
