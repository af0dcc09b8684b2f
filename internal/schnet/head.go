package schnet

import (
	"math/rand"

	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/tensor"
)

// OutputHead projects atom features to one scalar per atom:
// Linear(h, h/2) -> act -> Linear(h/2, 1).
type OutputHead struct {
	lin1 *nn.Linear
	lin2 *nn.Linear
	act  nn.Activation
}

// NewOutputHead creates the head for hiddenChannels features.
func NewOutputHead(hiddenChannels int, act nn.Activation, rng *rand.Rand) *OutputHead {
	return &OutputHead{
		lin1: nn.NewLinear(hiddenChannels, hiddenChannels/2, true, rng),
		lin2: nn.NewLinear(hiddenChannels/2, 1, true, rng),
		act:  act,
	}
}

// Forward returns per-atom scalars [N, 1].
func (o *OutputHead) Forward(h *tensor.Tensor) *tensor.Tensor {
	return o.lin2.Forward(o.act.Apply(o.lin1.Forward(h)))
}

// ResetParameters re-draws both layers.
func (o *OutputHead) ResetParameters(rng *rand.Rand) {
	o.lin1.ResetParameters(rng)
	o.lin2.ResetParameters(rng)
}

// Parameters returns lin1 and lin2 weights and biases.
func (o *OutputHead) Parameters() []*nn.Parameter {
	return append(nn.Collect("lin1", o.lin1), nn.Collect("lin2", o.lin2)...)
}
