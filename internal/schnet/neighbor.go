package schnet

import (
	"math/rand"

	"github.com/born-ml/cfconv/internal/elements"
	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/tensor"
)

// NeighborEmbedding refines atom embeddings with one round of messages
// carrying the element identity of each neighbor:
//
//	m_i = sum_{j -> i} emb(z_j) * distance_proj(rbf_ij) * C(d_ij)
//	h_i = combine([h_i, m_i])
//
// The result replaces the hidden state.
type NeighborEmbedding struct {
	embedding    *nn.Embedding
	distanceProj *nn.Linear
	combine      *nn.Linear
}

// NewNeighborEmbedding creates the layer with its own element table.
func NewNeighborEmbedding(hiddenChannels, numRBF int, rng *rand.Rand) *NeighborEmbedding {
	return &NeighborEmbedding{
		embedding:    nn.NewEmbedding(elements.NumElements, hiddenChannels, rng),
		distanceProj: nn.NewLinear(numRBF, hiddenChannels, true, rng),
		combine:      nn.NewLinear(2*hiddenChannels, hiddenChannels, true, rng),
	}
}

// Forward returns refined features [N, hidden_channels].
func (n *NeighborEmbedding) Forward(z *tensor.RawTensor, h *tensor.Tensor, e *edgeFeatures) *tensor.Tensor {
	w := n.distanceProj.Forward(e.rbf).Mul(e.envelope)
	neighbors := n.embedding.Forward(z, h.Backend()).IndexSelect(e.senders).Mul(w)
	return n.combine.Forward(h.Cat(1, e.aggregate(neighbors)))
}

// ResetParameters re-draws the table and both layers.
func (n *NeighborEmbedding) ResetParameters(rng *rand.Rand) {
	n.embedding.ResetParameters(rng)
	n.distanceProj.ResetParameters(rng)
	n.combine.ResetParameters(rng)
}

// Parameters returns the embedding table and both layers.
func (n *NeighborEmbedding) Parameters() []*nn.Parameter {
	params := nn.Collect("embedding", n.embedding)
	params = append(params, nn.Collect("distance_proj", n.distanceProj)...)
	return append(params, nn.Collect("combine", n.combine)...)
}
