// Package schnet implements a continuous-filter convolutional network that
// predicts molecular properties, and optionally forces, from atomic numbers
// and positions.
//
// Architecture:
//
//	z, pos -> radius graph -> distances -> radial basis
//	h = embedding(z) [-> neighbor embedding]
//	h = h + interaction_k(h)            for k = 1..num_interactions
//	drop atoms with z <= atom_filter
//	per-atom scalar = head(h) [dipole | rescale, atomref]
//	per-molecule readout [-> dipole norm] [-> forces = -d(sum out)/d(pos)]
//
// A Model is safe for concurrent Forward calls as long as its parameters are
// not modified at the same time.
package schnet

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/born-ml/cfconv/internal/cutoff"
	"github.com/born-ml/cfconv/internal/elements"
	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/rbf"
	"github.com/born-ml/cfconv/internal/scatter"
	"github.com/born-ml/cfconv/internal/tensor"
)

// Model is a continuous-filter graph convolution network.
type Model struct {
	cfg        Config
	backend    tensor.Backend
	activation nn.Activation
	readout    scatter.Readout
	cutoff     cutoff.Cosine

	embedding    *nn.Embedding
	expansion    rbf.Expansion
	neighbor     *NeighborEmbedding
	interactions []*InteractionBlock
	head         *OutputHead

	atomref        *nn.Embedding
	initialAtomref []float64
}

// New validates cfg and builds a model with freshly initialized parameters
// drawn from cfg.Seed.
func New(cfg Config, backend tensor.Backend) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("schnet: nil backend")
	}

	cfg.Atomref = slices.Clone(cfg.Atomref)
	if len(cfg.Atomref) == 0 {
		cfg.Atomref = nil
	}
	act, _ := nn.ParseActivation(cfg.Activation)
	kind, _ := rbf.ParseKind(cfg.RBFType)

	expansion, err := rbf.New(kind, cfg.CutoffLower, cfg.CutoffUpper, cfg.NumRBF, cfg.TrainableRBF)
	if err != nil {
		return nil, &ConfigError{Field: "rbf", Value: cfg.RBFType, Reason: err.Error()}
	}
	envelope, err := cutoff.New(cfg.CutoffLower, cfg.CutoffUpper)
	if err != nil {
		return nil, &ConfigError{Field: "cutoff_upper", Value: cfg.CutoffUpper, Reason: err.Error()}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &Model{
		cfg:        cfg,
		backend:    backend,
		activation: act,
		readout:    cfg.EffectiveReadout(),
		cutoff:     envelope,
		embedding:  nn.NewEmbedding(elements.NumElements, cfg.HiddenChannels, rng),
		expansion:  expansion,
	}
	if cfg.NeighborEmbedding {
		m.neighbor = NewNeighborEmbedding(cfg.HiddenChannels, cfg.NumRBF, rng)
	}
	m.interactions = make([]*InteractionBlock, cfg.NumInteractions)
	for i := range m.interactions {
		m.interactions[i] = NewInteractionBlock(cfg.HiddenChannels, cfg.NumRBF, cfg.NumFilters, act, rng)
	}
	m.head = NewOutputHead(cfg.HiddenChannels, act, rng)

	if cfg.Atomref != nil {
		m.initialAtomref = make([]float64, elements.NumElements)
		copy(m.initialAtomref, cfg.Atomref)
		m.atomref = nn.NewEmbedding(elements.NumElements, 1, rng)
		copy(m.atomref.Weight.Raw().AsFloat64(), m.initialAtomref)
	}

	return m, nil
}

// ResetParameters re-initializes every parameter from seed. The atomic
// reference table is restored to its configured values.
func (m *Model) ResetParameters(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	m.embedding.ResetParameters(rng)
	m.expansion.ResetParameters()
	if m.neighbor != nil {
		m.neighbor.ResetParameters(rng)
	}
	for _, block := range m.interactions {
		block.ResetParameters(rng)
	}
	m.head.ResetParameters(rng)
	if m.atomref != nil {
		copy(m.atomref.Weight.Raw().AsFloat64(), m.initialAtomref)
	}
}

// Parameters returns every parameter and buffer with its state dict name.
func (m *Model) Parameters() []*nn.Parameter {
	params := nn.Collect("embedding", m.embedding)
	params = append(params, nn.Collect("distance_expansion", m.expansion)...)
	if m.neighbor != nil {
		params = append(params, nn.Collect("neighbor_embedding", m.neighbor)...)
	}
	for i, block := range m.interactions {
		params = append(params, nn.Collect(fmt.Sprintf("interactions.%d", i), block)...)
	}
	params = append(params, m.head.Parameters()...)
	if m.atomref != nil {
		params = append(params, nn.Collect("atomref", m.atomref)...)
	}
	return params
}

// NumParameters returns the number of trainable scalars.
func (m *Model) NumParameters() int {
	n := 0
	for _, p := range m.Parameters() {
		if p.Trainable() {
			n += p.Raw().NumElements()
		}
	}
	return n
}

// Config returns a copy of the configuration the model was built with.
func (m *Model) Config() Config {
	cfg := m.cfg
	cfg.Atomref = slices.Clone(cfg.Atomref)
	return cfg
}

// Backend returns the backend the model computes on.
func (m *Model) Backend() tensor.Backend {
	return m.backend
}

// String reports the main hyperparameters.
func (m *Model) String() string {
	c := m.cfg
	return fmt.Sprintf("Model(hidden_channels=%d, num_filters=%d, num_interactions=%d, num_rbf=%d, "+
		"rbf_type=%s, trainable_rbf=%t, activation=%s, neighbor_embedding=%t, "+
		"cutoff_lower=%g, cutoff_upper=%g, derivative=%t, atom_filter=%d)",
		c.HiddenChannels, c.NumFilters, c.NumInteractions, c.NumRBF,
		c.RBFType, c.TrainableRBF, c.Activation, c.NeighborEmbedding,
		c.CutoffLower, c.CutoffUpper, c.Derivative, c.AtomFilter)
}
