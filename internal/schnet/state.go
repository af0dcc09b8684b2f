package schnet

import (
	"fmt"
	"maps"
	"slices"

	"github.com/born-ml/cfconv/internal/serialization"
	"github.com/born-ml/cfconv/internal/tensor"
)

// Metadata keys written by Save.
const (
	metaFormat = "format"
	metaConfig = "config"

	formatName = "cfconv"
)

// StateDict returns every parameter and buffer by name. The tensors share
// storage with the model.
func (m *Model) StateDict() map[string]*tensor.RawTensor {
	params := m.Parameters()
	sd := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		sd[p.Name()] = p.Raw()
	}
	return sd
}

// LoadStateDict copies values into the model's parameters. The dict must
// contain exactly the model's parameter names with matching shapes.
func (m *Model) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	params := m.Parameters()
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.Name()] = true
	}
	for _, name := range slices.Sorted(maps.Keys(sd)) {
		if !known[name] {
			return fmt.Errorf("load state dict: unexpected parameter %q", name)
		}
	}

	for _, p := range params {
		raw, ok := sd[p.Name()]
		if !ok {
			return fmt.Errorf("load state dict: missing parameter %q", p.Name())
		}
		if err := p.Load(raw); err != nil {
			return fmt.Errorf("load state dict: %w", err)
		}
	}
	return nil
}

// Save writes the configuration and weights to a SafeTensors file.
func (m *Model) Save(path string) error {
	cfgYAML, err := m.cfg.YAML()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	metadata := map[string]string{
		metaFormat: formatName,
		metaConfig: string(cfgYAML),
	}
	if err := serialization.WriteSafeTensors(path, m.StateDict(), metadata); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Load reads a model written by Save and binds it to backend.
func Load(path string, backend tensor.Backend) (*Model, error) {
	tensors, metadata, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if metadata[metaFormat] != formatName {
		return nil, fmt.Errorf("load %s: not a %s weights file", path, formatName)
	}

	cfg, err := ParseConfig([]byte(metadata[metaConfig]))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	m, err := New(cfg, backend)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := m.LoadStateDict(tensors); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}
