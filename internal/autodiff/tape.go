package autodiff

import (
	"github.com/born-ml/cfconv/internal/autodiff/ops"
	"github.com/born-ml/cfconv/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
//
// A tape belongs to one forward call. It is not safe for concurrent use;
// concurrent calls each create their own tape around a shared backend.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	tape.Watch(positions)
//	// ... perform operations ...
//	grads, err := Grad(tape, output, positions)
//	tape.Release()
type GradientTape struct {
	backend    tensor.Backend // non-recording backend for gradient math
	operations []ops.Operation
	watched    map[*tensor.RawTensor]struct{}
	recording  bool
	released   bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
		watched:    make(map[*tensor.RawTensor]struct{}),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording && !t.released
}

// Watch marks a leaf tensor as a differentiation target. Gradients can
// only be requested for watched tensors.
func (t *GradientTape) Watch(raw *tensor.RawTensor) {
	t.watched[raw] = struct{}{}
}

// IsWatched reports whether raw was marked with Watch.
func (t *GradientTape) IsWatched(raw *tensor.RawTensor) bool {
	_, ok := t.watched[raw]
	return ok
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.IsRecording() {
		t.operations = append(t.operations, op)
	}
}

// Release drops the recorded graph. A released tape records nothing and
// refuses gradient requests.
func (t *GradientTape) Release() {
	t.operations = nil
	t.watched = nil
	t.recording = false
	t.released = true
}

// Released reports whether Release was called.
func (t *GradientTape) Released() bool {
	return t.released
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients by walking the tape in reverse.
//
// Algorithm:
//  1. Seed the gradient of output with outputGrad
//  2. Walk operations in reverse order
//  3. For each operation whose output has a gradient, compute input
//     gradients using the chain rule
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Operations recorded after output was produced receive no gradient and
// are skipped. Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[output] = outputGrad

	// Gradient ops must not be recorded.
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		opGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(opGrad, backend)
		t.accumulateGrads(op, inputGrads, grads, backend)
	}

	return grads
}

// accumulateGrads accumulates gradients for each input tensor.
func (t *GradientTape) accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrad)
		} else {
			grads[input] = inputGrad
		}
	}
}
