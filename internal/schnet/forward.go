package schnet

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/cfconv/internal/autodiff"
	"github.com/born-ml/cfconv/internal/elements"
	"github.com/born-ml/cfconv/internal/graph"
	"github.com/born-ml/cfconv/internal/scatter"
	"github.com/born-ml/cfconv/internal/tensor"
)

// ErrInvalidInput is returned by Forward when the system is malformed.
var ErrInvalidInput = errors.New("schnet: invalid input")

// System is one batch of atoms.
//
// Molecules assigns each atom to a molecule with an arbitrary key; nil
// places every atom in molecule 0.
type System struct {
	AtomicNumbers []int64
	Positions     [][3]float64
	Molecules     []int64
}

// Prediction is the result of a forward pass.
type Prediction struct {
	// Molecules lists the distinct molecule keys in ascending order.
	Molecules []int64
	// Energy holds one output per entry of Molecules. In dipole mode it is
	// the dipole magnitude.
	Energy []float64
	// Atoms lists the input indices of the atoms kept by the atom filter.
	Atoms []int
	// AtomContrib holds the per-atom contribution of each kept atom before
	// the readout. Nil in dipole mode.
	AtomContrib []float64
	// Forces holds -d(sum Energy)/d(position) for each kept atom. Nil
	// unless the model was configured with Derivative.
	Forces [][3]float64
}

// Validate checks the system before any computation.
func (s System) Validate() error {
	n := len(s.AtomicNumbers)
	if len(s.Positions) != n {
		return fmt.Errorf("%w: %d atomic numbers but %d positions", ErrInvalidInput, n, len(s.Positions))
	}
	if s.Molecules != nil && len(s.Molecules) != n {
		return fmt.Errorf("%w: %d atomic numbers but %d molecule ids", ErrInvalidInput, n, len(s.Molecules))
	}
	for i, z := range s.AtomicNumbers {
		if !elements.Valid(z) {
			return fmt.Errorf("%w: atom %d has atomic number %d outside [0, %d]", ErrInvalidInput, i, z, elements.MaxAtomicNumber)
		}
	}
	for i, p := range s.Positions {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: atom %d has non-finite position %v", ErrInvalidInput, i, p)
			}
		}
	}
	return nil
}

func (s System) molecules() []int64 {
	if s.Molecules != nil {
		return s.Molecules
	}
	return make([]int64, len(s.AtomicNumbers))
}

// Forward predicts one value per molecule, and forces if the model was
// configured with Derivative.
//
// With Derivative, positions are watched on a fresh recording backend whose
// tape is released before Forward returns. Atoms at identical positions
// inside the cutoff give non-finite forces.
func (m *Model) Forward(sys System) (*Prediction, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	molecules := sys.molecules()

	edges, err := graph.RadiusGraph(sys.Positions, molecules, m.cfg.CutoffUpper, m.cfg.MaxNumNeighbors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if !m.cfg.Derivative {
		pos := tensor.FromVec3(sys.Positions, m.backend)
		pred, _ := m.forward(pos, sys.AtomicNumbers, molecules, edges)
		return pred, nil
	}

	ad := autodiff.New(m.backend)
	tape := ad.Tape()
	defer tape.Release()

	pos := tensor.FromVec3(sys.Positions, ad)
	tape.Watch(pos.Raw())
	tape.StartRecording()

	pred, out := m.forward(pos, sys.AtomicNumbers, molecules, edges)
	tape.StopRecording()

	grads, err := autodiff.Grad(tape, out.Raw(), pos.Raw())
	if err != nil {
		return nil, fmt.Errorf("schnet: forces: %w", err)
	}

	all := tensor.ToVec3(grads[0])
	pred.Forces = make([][3]float64, len(pred.Atoms))
	for k, i := range pred.Atoms {
		for d := range 3 {
			pred.Forces[k][d] = -all[i][d]
		}
	}
	return pred, nil
}

// forward runs the network on the backend of pos and returns the
// prediction without forces along with the per-molecule output tensor.
func (m *Model) forward(pos *tensor.Tensor, z, molecules []int64, edges graph.EdgeSet) (*Prediction, *tensor.Tensor) {
	b := pos.Backend()
	numAtoms := len(z)
	zRaw := tensor.IndexRaw(z)

	receivers := tensor.IndexRaw(edges.Receivers)
	senders := tensor.IndexRaw(edges.Senders)

	// Edge lengths |pos[r] - pos[s]|, differentiable in pos.
	vec := pos.IndexSelect(receivers).Sub(pos.IndexSelect(senders))
	dist := vec.Mul(vec).SumDim(1, false).Sqrt()

	e := &edgeFeatures{
		receivers: receivers,
		senders:   senders,
		numAtoms:  numAtoms,
		envelope:  m.cutoff.Forward(dist).Reshape(edges.Len(), 1),
		rbf:       m.expansion.Forward(dist),
	}

	h := m.embedding.Forward(zRaw, b)
	if m.neighbor != nil {
		h = m.neighbor.Forward(zRaw, h, e)
	}
	for _, block := range m.interactions {
		h = h.Add(block.Forward(h, e))
	}

	// Atom filter.
	var kept []int
	var keptIndex, keptZ []int64
	for i, zi := range z {
		if zi > m.cfg.AtomFilter {
			kept = append(kept, i)
			keptIndex = append(keptIndex, int64(i))
			keptZ = append(keptZ, zi)
		}
	}
	keep := tensor.IndexRaw(keptIndex)
	groups := scatter.NewGroups(molecules).Select(kept)

	h = m.head.Forward(h.IndexSelect(keep))

	pred := &Prediction{
		Molecules: groups.IDs,
		Atoms:     kept,
	}

	var out *tensor.Tensor
	if m.cfg.Dipole {
		keptPos := pos.IndexSelect(keep)
		h = h.Mul(keptPos.Sub(m.centerOfMass(keptPos, keptZ, groups).IndexSelect(tensor.IndexRaw(groups.Index))))
		dipole := scatter.Sum(h, groups)
		out = dipole.Mul(dipole).SumDim(1, false).Sqrt()
	} else {
		if m.cfg.Mean != nil && m.cfg.Std != nil {
			h = h.MulScalar(*m.cfg.Std).AddScalar(*m.cfg.Mean)
		}
		if m.atomref != nil {
			h = h.Add(m.atomref.Forward(tensor.IndexRaw(keptZ), b))
		}
		pred.AtomContrib = append([]float64(nil), h.Data()...)
		out = scatter.Reduce(h, groups, m.readout).Reshape(groups.Len())
	}

	pred.Energy = append([]float64(nil), out.Data()...)
	return pred, out
}

// centerOfMass returns the mass-weighted center of each group, [groups, 3].
// Groups without atoms get the origin.
func (m *Model) centerOfMass(pos *tensor.Tensor, z []int64, groups scatter.Groups) *tensor.Tensor {
	b := pos.Backend()

	mass := make([]float64, len(z))
	total := make([]float64, groups.Len())
	for i, zi := range z {
		mass[i] = elements.AtomicMass(zi)
		total[groups.Index[i]] += mass[i]
	}
	inv := make([]float64, groups.Len())
	for s, t := range total {
		if t > 0 {
			inv[s] = 1 / t
		}
	}

	massT := tensor.New(tensor.MustFloat64Raw(mass, tensor.Shape{len(z), 1}), b)
	invT := tensor.New(tensor.MustFloat64Raw(inv, tensor.Shape{groups.Len(), 1}), b)
	return scatter.Sum(pos.Mul(massT), groups).Mul(invT)
}
