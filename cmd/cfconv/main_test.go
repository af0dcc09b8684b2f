package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallYAML = `hidden_channels: 8
num_filters: 8
num_interactions: 1
num_rbf: 4
seed: 7
`

const twoFrames = `3
water
O 0.0 0.0 0.0
H 0.96 0.0 0.0
H -0.24 0.93 0.0
2
hydrogen
H 0.0 0.0 0.0
H 0.74 0.0 0.0
`

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), version)
}

func TestRun_Unknown(t *testing.T) {
	err := run([]string{"train"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown command")

	assert.ErrorIs(t, run(nil, &bytes.Buffer{}, &bytes.Buffer{}), errUsage)
}

func TestRun_InitPredict(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "model.yaml")
	xyzPath := filepath.Join(dir, "mols.xyz")
	weights := filepath.Join(dir, "model.safetensors")
	require.NoError(t, os.WriteFile(cfgPath, []byte(smallYAML), 0o600))
	require.NoError(t, os.WriteFile(xyzPath, []byte(twoFrames), 0o600))

	var out, logs bytes.Buffer
	require.NoError(t, run([]string{"init", "-config", cfgPath, "-out", weights}, &out, &logs))
	assert.FileExists(t, weights)
	assert.Contains(t, logs.String(), "model written")

	out.Reset()
	require.NoError(t, run([]string{"predict", "-model", weights, "-forces", xyzPath}, &out, &logs))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2+5)
	assert.True(t, strings.HasPrefix(lines[0], "molecule 0\t\"water\""))
	assert.True(t, strings.HasPrefix(lines[1], "molecule 1\t\"hydrogen\""))
	assert.True(t, strings.HasPrefix(lines[2], "force 0\t"))
}

func TestRun_PredictMissingFile(t *testing.T) {
	err := run([]string{"predict", "-model", filepath.Join(t.TempDir(), "none"), "x.xyz"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}
