package schnet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cfconv/internal/backend/cpu"
	"github.com/born-ml/cfconv/internal/serialization"
	"github.com/born-ml/cfconv/internal/tensor"
)

func TestModel_SaveLoad(t *testing.T) {
	cfg := smallConfig()
	cfg.Derivative = true
	cfg.Atomref = []float64{0, -0.6, 0, 0, 0, 0, -38, -54.6, -75}
	m := newModel(t, cfg)

	// Perturb a weight so the file differs from a fresh model.
	m.StateDict()["lin2.bias"].AsFloat64()[0] = 0.75

	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, m.Config(), loaded.Config())

	want, err := m.Forward(water())
	require.NoError(t, err)
	got, err := loaded.Forward(water())
	require.NoError(t, err)
	assert.Equal(t, want.Energy, got.Energy)
	assert.Equal(t, want.Forces, got.Forces)
}

func TestLoad_RejectsForeignFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.safetensors")
	w, err := tensor.Float64Raw([]float64{1}, tensor.Shape{1})
	require.NoError(t, err)
	require.NoError(t, serialization.WriteSafeTensors(path, map[string]*tensor.RawTensor{"w": w}, nil))

	_, err = Load(path, cpu.New())
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.safetensors"), cpu.New())
	require.Error(t, err)
}

func TestLoadStateDict_Errors(t *testing.T) {
	m := newModel(t, smallConfig())

	clone := func() map[string]*tensor.RawTensor {
		sd := make(map[string]*tensor.RawTensor)
		for k, v := range m.StateDict() {
			sd[k] = v.Clone()
		}
		return sd
	}

	require.NoError(t, m.LoadStateDict(clone()))

	sd := clone()
	delete(sd, "lin1.weight")
	err := m.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing parameter \"lin1.weight\"")

	sd = clone()
	sd["extra.weight"] = sd["lin1.weight"]
	err = m.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected parameter \"extra.weight\"")

	sd = clone()
	wrong, werr := tensor.Float64Raw(make([]float64, 3), tensor.Shape{3})
	require.NoError(t, werr)
	sd["lin2.bias"] = wrong
	require.Error(t, m.LoadStateDict(sd))
}
