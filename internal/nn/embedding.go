package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices (atomic numbers)
// to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim]
//   - Forward: indices [N] -> embeddings [N, EmbedDim]
//   - Backward: gradients scatter-add to weight rows
type Embedding struct {
	Weight   *Parameter
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding with weights drawn from N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int, rng *rand.Rand) *Embedding {
	e := &Embedding{
		Weight:   NewParameter("weight", tensor.MustRaw(tensor.Shape{numEmbeddings, embeddingDim}, tensor.Float64, tensor.CPU)),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
	e.ResetParameters(rng)
	return e
}

// ResetParameters re-draws the table from N(0, 1).
func (e *Embedding) ResetParameters(rng *rand.Rand) {
	Normal(e.Weight.Raw(), rng)
}

// CheckIndices returns an error naming the first index outside [0, NumEmbed).
func (e *Embedding) CheckIndices(indices []int64) error {
	for i, idx := range indices {
		if idx < 0 || int(idx) >= e.NumEmbed {
			return fmt.Errorf("index %d at position %d out of range [0, %d)", idx, i, e.NumEmbed)
		}
	}
	return nil
}

// Forward looks up the rows for indices on backend b.
//
// Panics if any index is out of bounds; use CheckIndices first on
// untrusted input.
func (e *Embedding) Forward(indices *tensor.RawTensor, b tensor.Backend) *tensor.Tensor {
	return e.Weight.On(b).IndexSelect(indices)
}

// Parameters returns the embedding table.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}
