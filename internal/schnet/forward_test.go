package schnet

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rigid applies rotation r followed by translation t to every position.
func rigid(sys System, r *mat.Dense, t [3]float64) System {
	out := sys
	out.Positions = make([][3]float64, len(sys.Positions))
	for i, p := range sys.Positions {
		var v mat.VecDense
		v.MulVec(r, mat.NewVecDense(3, p[:]))
		for d := range 3 {
			out.Positions[i][d] = v.AtVec(d) + t[d]
		}
	}
	return out
}

// rotation returns R_z(a) R_x(b).
func rotation(a, b float64) *mat.Dense {
	rz := mat.NewDense(3, 3, []float64{
		math.Cos(a), -math.Sin(a), 0,
		math.Sin(a), math.Cos(a), 0,
		0, 0, 1,
	})
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, math.Cos(b), -math.Sin(b),
		0, math.Sin(b), math.Cos(b),
	})
	var r mat.Dense
	r.Mul(rz, rx)
	return &r
}

func TestForward_Shapes(t *testing.T) {
	m := newModel(t, smallConfig())
	pred, err := m.Forward(water())
	require.NoError(t, err)

	assert.Equal(t, []int64{0}, pred.Molecules)
	require.Len(t, pred.Energy, 1)
	assert.False(t, math.IsNaN(pred.Energy[0]))
	assert.Equal(t, []int{0, 1, 2}, pred.Atoms)
	assert.Len(t, pred.AtomContrib, 3)
	assert.Nil(t, pred.Forces)

	// Sum readout: the energy is the sum of the contributions.
	assert.InDelta(t, floats.Sum(pred.AtomContrib), pred.Energy[0], 1e-12)
}

func TestForward_RigidInvariance(t *testing.T) {
	for _, rbfType := range []string{"expnorm", "gauss"} {
		t.Run(rbfType, func(t *testing.T) {
			cfg := smallConfig()
			cfg.RBFType = rbfType
			cfg.Derivative = true
			m := newModel(t, cfg)

			sys := methane()
			r := rotation(0.7, -1.3)
			moved := rigid(sys, r, [3]float64{3.5, -2, 11})

			want, err := m.Forward(sys)
			require.NoError(t, err)
			got, err := m.Forward(moved)
			require.NoError(t, err)

			assert.InDelta(t, want.Energy[0], got.Energy[0], 1e-9)

			// Forces rotate with the system.
			for i := range sys.Positions {
				var f mat.VecDense
				f.MulVec(r, mat.NewVecDense(3, want.Forces[i][:]))
				for d := range 3 {
					assert.InDelta(t, f.AtVec(d), got.Forces[i][d], 1e-8)
				}
			}
		})
	}
}

func TestForward_PermutationEquivariance(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	m := newModel(t, cfg)

	a, b := water(), methane()
	batch := System{
		AtomicNumbers: append(append([]int64{}, a.AtomicNumbers...), b.AtomicNumbers...),
		Positions:     append(append([][3]float64{}, a.Positions...), b.Positions...),
		Molecules:     []int64{0, 0, 0, 1, 1, 1, 1, 1},
	}
	for i := 3; i < 8; i++ {
		batch.Positions[i][0] += 20
	}

	perm := []int{5, 0, 7, 3, 2, 6, 1, 4}
	shuffled := System{
		AtomicNumbers: make([]int64, len(perm)),
		Positions:     make([][3]float64, len(perm)),
		Molecules:     make([]int64, len(perm)),
	}
	for k, i := range perm {
		shuffled.AtomicNumbers[k] = batch.AtomicNumbers[i]
		shuffled.Positions[k] = batch.Positions[i]
		shuffled.Molecules[k] = batch.Molecules[i]
	}

	want, err := m.Forward(batch)
	require.NoError(t, err)
	got, err := m.Forward(shuffled)
	require.NoError(t, err)

	assert.Equal(t, want.Molecules, got.Molecules)
	assert.InDeltaSlice(t, want.Energy, got.Energy, 1e-10)
	for k, i := range perm {
		for d := range 3 {
			assert.InDelta(t, want.Forces[i][d], got.Forces[k][d], 1e-9)
		}
	}
}

func TestForward_CutoffSupport(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	cfg.CutoffUpper = 3
	m := newModel(t, cfg)

	sys := System{
		AtomicNumbers: []int64{6, 8, 1},
		Positions:     [][3]float64{{0, 0, 0}, {1.2, 0, 0}, {10, 0, 0}},
	}
	pred, err := m.Forward(sys)
	require.NoError(t, err)

	// The far atom feels nothing and contributes nothing to the others.
	assert.Equal(t, [3]float64{}, pred.Forces[2])

	sys.Positions[2] = [3]float64{10, 4, -7}
	moved, err := m.Forward(sys)
	require.NoError(t, err)
	assert.Equal(t, pred.AtomContrib, moved.AtomContrib)
	assert.Equal(t, pred.Energy, moved.Energy)

	// An atom exactly at the cutoff is also outside the support.
	sys.Positions[2] = [3]float64{4.2, 0, 0}
	edge, err := m.Forward(sys)
	require.NoError(t, err)
	assert.Equal(t, pred.AtomContrib, edge.AtomContrib)
}

func TestForward_ForcesMatchFiniteDifferences(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"expnorm silu", func(*Config) {}},
		{"gauss ssp", func(c *Config) { c.RBFType = "gauss"; c.Activation = "ssp" }},
		{"lower cutoff tanh", func(c *Config) { c.CutoffLower = 0.5; c.Activation = "tanh" }},
		{"no neighbor embedding mean", func(c *Config) { c.NeighborEmbedding = false; c.Readout = "mean"; c.Activation = "sigmoid" }},
		{"dipole", func(c *Config) { c.Dipole = true }},
	}

	base := System{
		AtomicNumbers: []int64{6, 1, 8},
		Positions:     [][3]float64{{0.1, -0.2, 0.05}, {1.05, 0.3, -0.4}, {-0.9, 0.8, 0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.CutoffUpper = 3
			tt.modify(&cfg)
			cfg.Derivative = true
			m := newModel(t, cfg)

			pred, err := m.Forward(base)
			require.NoError(t, err)

			plainCfg := cfg
			plainCfg.Derivative = false
			plain := newModel(t, plainCfg)

			energy := func(x []float64) float64 {
				sys := base
				sys.Positions = make([][3]float64, len(base.Positions))
				for i := range sys.Positions {
					copy(sys.Positions[i][:], x[3*i:3*i+3])
				}
				p, err := plain.Forward(sys)
				require.NoError(t, err)
				return floats.Sum(p.Energy)
			}

			x0 := make([]float64, 0, 9)
			for _, p := range base.Positions {
				x0 = append(x0, p[:]...)
			}
			grad := fd.Gradient(nil, energy, x0, &fd.Settings{Formula: fd.Central, Step: 1e-5})

			for i, f := range pred.Forces {
				for d := range 3 {
					assert.InDelta(t, -grad[3*i+d], f[d], 1e-6, "atom %d dim %d", i, d)
				}
			}
		})
	}
}

func TestForward_AtomFilter(t *testing.T) {
	cfg := smallConfig()
	cfg.AtomFilter = 1
	cfg.Derivative = true
	cfg.Readout = "mean"
	m := newModel(t, cfg)

	pred, err := m.Forward(water())
	require.NoError(t, err)

	// Only oxygen survives; the mean divides by the filtered count.
	assert.Equal(t, []int{0}, pred.Atoms)
	require.Len(t, pred.AtomContrib, 1)
	require.Len(t, pred.Forces, 1)
	assert.InDelta(t, pred.AtomContrib[0], pred.Energy[0], 1e-12)

	// Hydrogens still shape the oxygen environment.
	assert.Greater(t, floats.Norm(pred.Forces[0][:], 2), 1e-8)
}

func TestForward_FilterEmptiesMolecule(t *testing.T) {
	cfg := smallConfig()
	cfg.AtomFilter = 1
	cfg.Readout = "mean"
	m := newModel(t, cfg)

	pred, err := m.Forward(System{
		AtomicNumbers: []int64{1, 1, 8},
		Positions:     [][3]float64{{0, 0, 0}, {0.74, 0, 0}, {30, 0, 0}},
		Molecules:     []int64{0, 0, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, pred.Molecules)
	assert.Equal(t, 0.0, pred.Energy[0])
	assert.Equal(t, []int{2}, pred.Atoms)
}

func TestForward_DipoleSymmetricCancels(t *testing.T) {
	cfg := smallConfig()
	cfg.Dipole = true
	cfg.Readout = "mean"
	m := newModel(t, cfg)

	pred, err := m.Forward(System{
		AtomicNumbers: []int64{7, 7},
		Positions:     [][3]float64{{0.55, 0, 0}, {-0.55, 0, 0}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, pred.Energy[0], 1e-12)
	assert.Nil(t, pred.AtomContrib)
}

func TestForward_DipoleIgnoresRescaling(t *testing.T) {
	cfg := smallConfig()
	cfg.Dipole = true
	plain := newModel(t, cfg)

	mean, std := 3.0, 7.0
	cfg.Mean, cfg.Std = &mean, &std
	cfg.Atomref = []float64{0, 5, 0, 0, 0, 0, 9, 0, 11}
	scaled := newModel(t, cfg)

	sys := water()
	want, err := plain.Forward(sys)
	require.NoError(t, err)
	got, err := scaled.Forward(sys)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Energy, got.Energy, 1e-12)
	assert.Greater(t, got.Energy[0], 0.0)
}

func TestForward_RescaleAndAtomref(t *testing.T) {
	cfg := smallConfig()
	base := newModel(t, cfg)

	mean, std := -1.5, 2.0
	ref := []float64{0, -0.5, 0, 0, 0, 0, 0, 0, -75}
	cfg.Mean, cfg.Std = &mean, &std
	cfg.Atomref = ref
	m := newModel(t, cfg)

	sys := water()
	want, err := base.Forward(sys)
	require.NoError(t, err)
	got, err := m.Forward(sys)
	require.NoError(t, err)

	for i, z := range sys.AtomicNumbers {
		assert.InDelta(t, want.AtomContrib[i]*std+mean+ref[z], got.AtomContrib[i], 1e-12)
	}

	// Only one of mean and std configured leaves the scale untouched.
	cfg.Std = nil
	cfg.Atomref = nil
	half := newModel(t, cfg)
	got, err = half.Forward(sys)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Energy, got.Energy, 1e-12)
}

func TestForward_BatchingEquivalence(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	m := newModel(t, cfg)

	a, b := water(), methane()
	single := make([]*Prediction, 2)
	for i, sys := range []System{a, b} {
		p, err := m.Forward(sys)
		require.NoError(t, err)
		single[i] = p
	}

	// Overlapping molecules: only the ids keep them apart.
	batch := System{
		AtomicNumbers: append(append([]int64{}, a.AtomicNumbers...), b.AtomicNumbers...),
		Positions:     append(append([][3]float64{}, a.Positions...), b.Positions...),
		Molecules:     []int64{42, 42, 42, -7, -7, -7, -7, -7},
	}
	pred, err := m.Forward(batch)
	require.NoError(t, err)

	assert.Equal(t, []int64{-7, 42}, pred.Molecules)
	assert.InDelta(t, single[1].Energy[0], pred.Energy[0], 1e-10)
	assert.InDelta(t, single[0].Energy[0], pred.Energy[1], 1e-10)

	for i := range a.Positions {
		for d := range 3 {
			assert.InDelta(t, single[0].Forces[i][d], pred.Forces[i][d], 1e-10)
		}
	}
	for i := range b.Positions {
		for d := range 3 {
			assert.InDelta(t, single[1].Forces[i][d], pred.Forces[3+i][d], 1e-10)
		}
	}
}

func TestForward_EmptyNeighborhood(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	m := newModel(t, cfg)

	pred, err := m.Forward(System{
		AtomicNumbers: []int64{6},
		Positions:     [][3]float64{{1, 2, 3}},
	})
	require.NoError(t, err)
	require.Len(t, pred.Energy, 1)
	assert.False(t, math.IsNaN(pred.Energy[0]))
	assert.Equal(t, [][3]float64{{0, 0, 0}}, pred.Forces)
}

func TestForward_EmptySystem(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	m := newModel(t, cfg)

	pred, err := m.Forward(System{})
	require.NoError(t, err)
	assert.Empty(t, pred.Energy)
	assert.Empty(t, pred.Forces)
}

func TestForward_InvalidInput(t *testing.T) {
	m := newModel(t, smallConfig())

	tests := []struct {
		name string
		sys  System
	}{
		{"length mismatch", System{AtomicNumbers: []int64{1, 1}, Positions: [][3]float64{{0, 0, 0}}}},
		{"molecule mismatch", System{AtomicNumbers: []int64{1}, Positions: [][3]float64{{0, 0, 0}}, Molecules: []int64{0, 0}}},
		{"atomic number too large", System{AtomicNumbers: []int64{100}, Positions: [][3]float64{{0, 0, 0}}}},
		{"negative atomic number", System{AtomicNumbers: []int64{-1}, Positions: [][3]float64{{0, 0, 0}}}},
		{"nan position", System{AtomicNumbers: []int64{1}, Positions: [][3]float64{{math.NaN(), 0, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Forward(tt.sys)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestForward_Concurrent(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	m := newModel(t, cfg)

	want, err := m.Forward(methane())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Prediction, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Forward(methane())
		}()
	}
	wg.Wait()

	for i, p := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Energy, p.Energy)
		assert.Equal(t, want.Forces, p.Forces)
	}
}

// denseCluster surrounds a carbon with 40 hydrogens between 1.5 and 3 A,
// plus one hydrogen at 3.5 A on +x and a second at radius r on -x.
func denseCluster(r float64) System {
	rng := rand.New(rand.NewSource(5))
	sys := System{
		AtomicNumbers: []int64{6, 1, 1},
		Positions:     [][3]float64{{0, 0, 0}, {3.5, 0, 0}, {-r, 0, 0}},
	}
	for range 40 {
		var v [3]float64
		for d := range v {
			v[d] = rng.NormFloat64()
		}
		scale := (1.5 + 1.5*rng.Float64()) / floats.Norm(v[:], 2)
		floats.Scale(scale, v[:])
		sys.AtomicNumbers = append(sys.AtomicNumbers, 1)
		sys.Positions = append(sys.Positions, v)
	}
	return sys
}

func TestForward_DenseNeighborhoodIsContinuous(t *testing.T) {
	m := newModel(t, smallConfig())
	require.Zero(t, m.Config().MaxNumNeighbors)

	inside, err := m.Forward(denseCluster(3.5 - 1e-9))
	require.NoError(t, err)
	outside, err := m.Forward(denseCluster(3.5 + 1e-9))
	require.NoError(t, err)

	// Two neighbors swap distance rank; without a cap nothing else changes.
	assert.InDelta(t, inside.Energy[0], outside.Energy[0], 1e-7)
}
