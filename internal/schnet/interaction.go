package schnet

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/tensor"
)

// edgeFeatures carries the per-edge geometry shared by every message
// passing layer of one forward call.
type edgeFeatures struct {
	receivers *tensor.RawTensor // [E] int64
	senders   *tensor.RawTensor // [E] int64
	numAtoms  int
	envelope  *tensor.Tensor // [E, 1] cosine cutoff of each edge distance
	rbf       *tensor.Tensor // [E, num_rbf]
}

// aggregate sums per-edge messages [E, F] into their receivers [numAtoms, F].
// Atoms without incoming edges get zero rows.
func (e *edgeFeatures) aggregate(messages *tensor.Tensor) *tensor.Tensor {
	return messages.ScatterAdd(e.receivers, e.numAtoms)
}

// FilterNetwork generates continuous filters from radial features:
// Linear(num_rbf, num_filters) -> act -> Linear(num_filters, num_filters),
// gated by the cutoff envelope.
type FilterNetwork struct {
	lin1 *nn.Linear
	lin2 *nn.Linear
	act  nn.Activation
}

// NewFilterNetwork creates a filter network.
func NewFilterNetwork(numRBF, numFilters int, act nn.Activation, rng *rand.Rand) *FilterNetwork {
	return &FilterNetwork{
		lin1: nn.NewLinear(numRBF, numFilters, true, rng),
		lin2: nn.NewLinear(numFilters, numFilters, true, rng),
		act:  act,
	}
}

// Forward returns the filter of every edge, [E, num_filters].
func (f *FilterNetwork) Forward(e *edgeFeatures) *tensor.Tensor {
	w := f.lin2.Forward(f.act.Apply(f.lin1.Forward(e.rbf)))
	return w.Mul(e.envelope)
}

// ResetParameters re-draws both layers.
func (f *FilterNetwork) ResetParameters(rng *rand.Rand) {
	f.lin1.ResetParameters(rng)
	f.lin2.ResetParameters(rng)
}

// Parameters returns the layer weights, named like a two-layer sequential
// stack with the activation at position 1.
func (f *FilterNetwork) Parameters() []*nn.Parameter {
	return append(nn.Collect("0", f.lin1), nn.Collect("2", f.lin2)...)
}

// CFConv is a continuous-filter convolution.
//
// Sender features are projected without bias into filter space, multiplied
// by the edge filter, summed at the receiver and projected back:
//
//	out_i = lin2( sum_{j -> i} lin1(x_j) * W_ij )
type CFConv struct {
	lin1 *nn.Linear
	lin2 *nn.Linear
}

// NewCFConv creates a convolution mapping inChannels to outChannels.
func NewCFConv(inChannels, outChannels, numFilters int, rng *rand.Rand) *CFConv {
	return &CFConv{
		lin1: nn.NewLinear(inChannels, numFilters, false, rng),
		lin2: nn.NewLinear(numFilters, outChannels, true, rng),
	}
}

// Forward applies the convolution with precomputed edge filters [E, num_filters].
func (c *CFConv) Forward(x *tensor.Tensor, e *edgeFeatures, filter *tensor.Tensor) *tensor.Tensor {
	if x.Shape()[0] != e.numAtoms {
		panic(fmt.Sprintf("CFConv.Forward: %d feature rows for %d atoms", x.Shape()[0], e.numAtoms))
	}
	messages := c.lin1.Forward(x).IndexSelect(e.senders).Mul(filter)
	return c.lin2.Forward(e.aggregate(messages))
}

// ResetParameters re-draws both projections.
func (c *CFConv) ResetParameters(rng *rand.Rand) {
	c.lin1.ResetParameters(rng)
	c.lin2.ResetParameters(rng)
}

// Parameters returns lin1.weight, lin2.weight and lin2.bias.
func (c *CFConv) Parameters() []*nn.Parameter {
	return append(nn.Collect("lin1", c.lin1), nn.Collect("lin2", c.lin2)...)
}

// InteractionBlock is one residual message passing layer. It owns its
// filter network and convolution; nothing is shared between blocks.
type InteractionBlock struct {
	mlp  *FilterNetwork
	conv *CFConv
	act  nn.Activation
	lin  *nn.Linear
}

// NewInteractionBlock creates a block over hiddenChannels features.
func NewInteractionBlock(hiddenChannels, numRBF, numFilters int, act nn.Activation, rng *rand.Rand) *InteractionBlock {
	return &InteractionBlock{
		mlp:  NewFilterNetwork(numRBF, numFilters, act, rng),
		conv: NewCFConv(hiddenChannels, hiddenChannels, numFilters, rng),
		act:  act,
		lin:  nn.NewLinear(hiddenChannels, hiddenChannels, true, rng),
	}
}

// Forward returns the update added to the hidden state, [N, hidden_channels].
func (b *InteractionBlock) Forward(h *tensor.Tensor, e *edgeFeatures) *tensor.Tensor {
	x := b.conv.Forward(h, e, b.mlp.Forward(e))
	return b.lin.Forward(b.act.Apply(x))
}

// ResetParameters re-draws every layer of the block.
func (b *InteractionBlock) ResetParameters(rng *rand.Rand) {
	b.mlp.ResetParameters(rng)
	b.conv.ResetParameters(rng)
	b.lin.ResetParameters(rng)
}

// Parameters returns the parameters of the filter network, convolution and
// mixing layer.
func (b *InteractionBlock) Parameters() []*nn.Parameter {
	params := nn.Collect("mlp", b.mlp)
	params = append(params, nn.Collect("conv", b.conv)...)
	return append(params, nn.Collect("lin", b.lin)...)
}
