package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Errors returned by Grad.
var (
	// ErrNotTracked means a gradient was requested for a tensor that was
	// never marked with Watch.
	ErrNotTracked = errors.New("autodiff: tensor is not tracked for gradients")

	// ErrGraphReleased means the tape was released before the gradient call.
	ErrGraphReleased = errors.New("autodiff: computation graph was released")

	// ErrEmptyTape means no operations were recorded.
	ErrEmptyTape = errors.New("autodiff: no operations recorded (did you forget to call StartRecording?)")
)

// BackwardCapable is an interface for backends that support backward pass.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
	// Inner returns the non-recording backend used for gradient math.
	Inner() tensor.Backend
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Grad computes d(sum(output))/d(input) for each requested input.
//
// The output gradient is seeded with ones, so a vector of per-molecule
// energies yields the gradient of their sum. Inputs must have been marked
// with Watch; a watched input that the output does not depend on gets a
// zero gradient rather than an error.
func Grad(tape *GradientTape, output *tensor.RawTensor, inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if tape.Released() {
		return nil, ErrGraphReleased
	}
	for i, in := range inputs {
		if !tape.IsWatched(in) {
			return nil, fmt.Errorf("input %d: %w", i, ErrNotTracked)
		}
	}
	if tape.NumOps() == 0 {
		return nil, ErrEmptyTape
	}
	if output.DType() != tensor.Float64 {
		return nil, fmt.Errorf("autodiff: unsupported output dtype %s (only float64 supported)", output.DType())
	}

	if tape.backend == nil {
		return nil, errors.New("autodiff: tape is not attached to a backend")
	}

	grads := tape.Backward(output, ones(output), tape.backend)

	result := make([]*tensor.RawTensor, len(inputs))
	for i, in := range inputs {
		if g, ok := grads[in]; ok {
			result[i] = g
			continue
		}
		result[i] = tensor.MustRaw(in.Shape(), tensor.Float64, in.Device())
	}
	return result, nil
}

// Backward computes gradients for every tensor reachable from output.
//
// Returns a map from RawTensor to its gradient, including parameters that
// were never watched. Useful to inspect parameter gradients.
func Backward(output *tensor.Tensor, backend BackwardCapable) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	tape := backend.GetTape()
	if tape.Released() {
		return nil, ErrGraphReleased
	}
	if tape.NumOps() == 0 {
		return nil, ErrEmptyTape
	}

	return tape.Backward(output.Raw(), ones(output.Raw()), backend.Inner()), nil
}

// ones returns a float64 tensor of ones shaped like t.
func ones(t *tensor.RawTensor) *tensor.RawTensor {
	seed := tensor.MustRaw(t.Shape(), tensor.Float64, t.Device())
	data := seed.AsFloat64()
	for i := range data {
		data[i] = 1
	}
	return seed
}
