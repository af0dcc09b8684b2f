package schnet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/cfconv/internal/elements"
	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/rbf"
	"github.com/born-ml/cfconv/internal/scatter"
)

// Config holds the hyperparameters of a Model.
//
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	HiddenChannels    int       `yaml:"hidden_channels" json:"hidden_channels"`
	NumFilters        int       `yaml:"num_filters" json:"num_filters"`
	NumInteractions   int       `yaml:"num_interactions" json:"num_interactions"`
	NumRBF            int       `yaml:"num_rbf" json:"num_rbf"`
	RBFType           string    `yaml:"rbf_type" json:"rbf_type"`
	TrainableRBF      bool      `yaml:"trainable_rbf" json:"trainable_rbf"`
	Activation        string    `yaml:"activation" json:"activation"`
	NeighborEmbedding bool      `yaml:"neighbor_embedding" json:"neighbor_embedding"`
	CutoffLower       float64   `yaml:"cutoff_lower" json:"cutoff_lower"`
	CutoffUpper       float64   `yaml:"cutoff_upper" json:"cutoff_upper"`
	Readout           string    `yaml:"readout" json:"readout"`
	Dipole            bool      `yaml:"dipole" json:"dipole"`
	Mean              *float64  `yaml:"mean,omitempty" json:"mean,omitempty"`
	Std               *float64  `yaml:"std,omitempty" json:"std,omitempty"`
	Atomref           []float64 `yaml:"atomref,omitempty" json:"atomref,omitempty"`
	Derivative        bool      `yaml:"derivative" json:"derivative"`
	AtomFilter        int64     `yaml:"atom_filter" json:"atom_filter"`
	// MaxNumNeighbors caps incoming edges per atom, nearest first. Zero keeps
	// every pair within the cutoff. A cap makes the energy discontinuous once
	// an atom has more neighbors than the cap.
	MaxNumNeighbors   int       `yaml:"max_num_neighbors" json:"max_num_neighbors"`
	Seed              int64     `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		HiddenChannels:    128,
		NumFilters:        128,
		NumInteractions:   6,
		NumRBF:            50,
		RBFType:           "expnorm",
		TrainableRBF:      true,
		Activation:        "silu",
		NeighborEmbedding: true,
		CutoffLower:       0.0,
		CutoffUpper:       5.0,
		Readout:           "add",
		AtomFilter:        0,
		MaxNumNeighbors:   0,
	}
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Value   any
	Reason  string
	Choices []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s %v", e.Field, e.Value)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Choices) > 0 {
		fmt.Fprintf(&b, ", choose from %s", strings.Join(e.Choices, ", "))
	}
	return b.String()
}

// Validate checks every field and returns the first *ConfigError found.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"num_filters", c.NumFilters},
		{"num_interactions", c.NumInteractions},
		{"num_rbf", c.NumRBF},
	}
	if c.HiddenChannels < 2 {
		return &ConfigError{Field: "hidden_channels", Value: c.HiddenChannels, Reason: "must be at least 2"}
	}
	for _, p := range positive {
		if p.value < 1 {
			return &ConfigError{Field: p.field, Value: p.value, Reason: "must be positive"}
		}
	}

	if _, err := rbf.ParseKind(c.RBFType); err != nil {
		return &ConfigError{Field: "rbf_type", Value: c.RBFType, Reason: "unknown", Choices: rbf.KindNames()}
	}
	if _, err := nn.ParseActivation(c.Activation); err != nil {
		return &ConfigError{Field: "activation", Value: c.Activation, Reason: "unknown", Choices: nn.ActivationNames()}
	}
	if _, err := scatter.ParseReadout(c.Readout); err != nil {
		return &ConfigError{Field: "readout", Value: c.Readout, Reason: "unknown", Choices: scatter.ReadoutNames()}
	}

	if !(c.CutoffLower >= 0) || math.IsInf(c.CutoffLower, 0) {
		return &ConfigError{Field: "cutoff_lower", Value: c.CutoffLower, Reason: "must be finite and non-negative"}
	}
	if !(c.CutoffUpper > c.CutoffLower) || math.IsInf(c.CutoffUpper, 0) {
		return &ConfigError{Field: "cutoff_upper", Value: c.CutoffUpper, Reason: fmt.Sprintf("must be finite and greater than cutoff_lower %g", c.CutoffLower)}
	}

	if c.Std != nil && math.IsNaN(*c.Std) {
		return &ConfigError{Field: "std", Value: *c.Std, Reason: "must be a number"}
	}
	if c.Mean != nil && math.IsNaN(*c.Mean) {
		return &ConfigError{Field: "mean", Value: *c.Mean, Reason: "must be a number"}
	}
	if len(c.Atomref) > elements.NumElements {
		return &ConfigError{
			Field:  "atomref",
			Value:  fmt.Sprintf("[%d values]", len(c.Atomref)),
			Reason: fmt.Sprintf("at most %d entries (one per atomic number 0..%d)", elements.NumElements, elements.MaxAtomicNumber),
		}
	}
	return nil
}

// EffectiveReadout returns the readout applied by the model. Dipole mode
// always sums.
func (c *Config) EffectiveReadout() scatter.Readout {
	if c.Dipole {
		return scatter.ReadoutSum
	}
	r, err := scatter.ParseReadout(c.Readout)
	if err != nil {
		return scatter.ReadoutSum
	}
	return r
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for config loading
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// YAML returns the YAML encoding of the configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
