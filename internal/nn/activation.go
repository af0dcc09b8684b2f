package nn

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Activation identifies an activation function.
type Activation int

// Supported activations.
const (
	ShiftedSoftplus Activation = iota // ssp: softplus(x) - ln 2
	SiLU                              // silu: x * sigmoid(x)
	Tanh                              // tanh
	Sigmoid                           // sigmoid
)

var activationNames = [...]string{
	ShiftedSoftplus: "ssp",
	SiLU:            "silu",
	Tanh:            "tanh",
	Sigmoid:         "sigmoid",
}

// ActivationNames returns the identifiers accepted by ParseActivation.
func ActivationNames() []string {
	return append([]string(nil), activationNames[:]...)
}

// ParseActivation maps an identifier to an Activation.
func ParseActivation(name string) (Activation, error) {
	for i, n := range activationNames {
		if n == name {
			return Activation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown activation function %q, choose from %s", name, strings.Join(activationNames[:], ", "))
}

// String returns the identifier of the activation.
func (a Activation) String() string {
	if a < 0 || int(a) >= len(activationNames) {
		return fmt.Sprintf("Activation(%d)", int(a))
	}
	return activationNames[a]
}

// Apply evaluates the activation on x.
func (a Activation) Apply(x *tensor.Tensor) *tensor.Tensor {
	switch a {
	case ShiftedSoftplus:
		return x.Softplus().AddScalar(-math.Ln2)
	case SiLU:
		return x.SiLU()
	case Tanh:
		return x.Tanh()
	case Sigmoid:
		return x.Sigmoid()
	default:
		panic(fmt.Sprintf("activation: unknown kind %d", int(a)))
	}
}
