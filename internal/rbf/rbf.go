// Package rbf expands interatomic distances into radial basis features.
package rbf

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/cfconv/internal/cutoff"
	"github.com/born-ml/cfconv/internal/nn"
	"github.com/born-ml/cfconv/internal/tensor"
)

// Kind identifies a radial basis family.
type Kind int

// Supported radial basis families.
const (
	Gauss   Kind = iota // Gaussians with evenly spaced centers
	ExpNorm             // exponential-normal functions with a built-in cosine envelope
)

var kindNames = [...]string{
	Gauss:   "gauss",
	ExpNorm: "expnorm",
}

// KindNames returns the identifiers accepted by ParseKind.
func KindNames() []string {
	return append([]string(nil), kindNames[:]...)
}

// ParseKind maps an identifier to a Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown distance expansion function %q, choose from %s", name, strings.Join(kindNames[:], ", "))
}

// String returns the identifier of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Expansion maps distances [E] to features [E, NumRBF].
type Expansion interface {
	nn.Module
	Forward(d *tensor.Tensor) *tensor.Tensor
	NumRBF() int
	// ResetParameters restores the analytic initial values.
	ResetParameters()
}

// New builds an expansion of the given kind over [lower, upper].
func New(kind Kind, lower, upper float64, numRBF int, trainable bool) (Expansion, error) {
	if numRBF < 1 {
		return nil, fmt.Errorf("rbf: num_rbf must be positive, got %d", numRBF)
	}
	if lower < 0 || !(lower < upper) {
		return nil, fmt.Errorf("rbf: need 0 <= lower < upper, got lower=%g upper=%g", lower, upper)
	}

	switch kind {
	case Gauss:
		return NewGaussian(lower, upper, numRBF, trainable), nil
	case ExpNorm:
		return NewExpNormal(lower, upper, numRBF, trainable), nil
	default:
		return nil, fmt.Errorf("rbf: unknown kind %d", int(kind))
	}
}

func newParam(name string, n int, trainable bool) *nn.Parameter {
	raw := tensor.MustRaw(tensor.Shape{n}, tensor.Float64, tensor.CPU)
	if trainable {
		return nn.NewParameter(name, raw)
	}
	return nn.NewBuffer(name, raw)
}

func linspace(dst []float64, start, stop float64) {
	n := len(dst)
	if n == 1 {
		dst[0] = start
		return
	}
	step := (stop - start) / float64(n-1)
	for i := range dst {
		dst[i] = start + float64(i)*step
	}
	dst[n-1] = stop
}

// Gaussian expands d into exp(coeff * (d - offset_k)^2) with offsets
// evenly spaced over [lower, upper].
type Gaussian struct {
	lower, upper float64
	offset       *nn.Parameter // [n]
	coeff        *nn.Parameter // [1]
}

// NewGaussian creates a Gaussian expansion with numRBF centers.
func NewGaussian(lower, upper float64, numRBF int, trainable bool) *Gaussian {
	g := &Gaussian{
		lower:  lower,
		upper:  upper,
		offset: newParam("offset", numRBF, trainable),
		coeff:  newParam("coeff", 1, trainable),
	}
	g.ResetParameters()
	return g
}

// ResetParameters restores evenly spaced offsets and the width matching
// their spacing. A single center uses unit spacing.
func (g *Gaussian) ResetParameters() {
	offset := g.offset.Raw().AsFloat64()
	linspace(offset, g.lower, g.upper)

	spacing := 1.0
	if len(offset) > 1 {
		spacing = offset[1] - offset[0]
	}
	g.coeff.Raw().AsFloat64()[0] = -0.5 / (spacing * spacing)
}

// Forward computes the features for distances d of shape [E].
func (g *Gaussian) Forward(d *tensor.Tensor) *tensor.Tensor {
	b := d.Backend()
	n := g.NumRBF()

	diff := d.Reshape(d.NumElements(), 1).Sub(g.offset.On(b).Reshape(1, n))
	return diff.Mul(diff).Mul(g.coeff.On(b).Reshape(1, 1)).Exp()
}

// NumRBF returns the number of features.
func (g *Gaussian) NumRBF() int {
	return g.offset.Raw().NumElements()
}

// Parameters returns [offset, coeff].
func (g *Gaussian) Parameters() []*nn.Parameter {
	return []*nn.Parameter{g.offset, g.coeff}
}

// ExpNormal expands d into
//
//	C(d) * exp(-beta_k * (exp(alpha * (lower - d)) - mean_k)^2)
//
// where C is a cosine envelope on [0, upper] and alpha = 5 / (upper - lower).
type ExpNormal struct {
	lower, upper float64
	alpha        float64
	envelope     cutoff.Cosine
	means        *nn.Parameter // [n]
	betas        *nn.Parameter // [n]
}

// NewExpNormal creates an exponential-normal expansion with numRBF functions.
func NewExpNormal(lower, upper float64, numRBF int, trainable bool) *ExpNormal {
	e := &ExpNormal{
		lower:    lower,
		upper:    upper,
		alpha:    5.0 / (upper - lower),
		envelope: cutoff.Cosine{Lower: 0, Upper: upper},
		means:    newParam("means", numRBF, trainable),
		betas:    newParam("betas", numRBF, trainable),
	}
	e.ResetParameters()
	return e
}

// ResetParameters restores means evenly spaced over [exp(lower - upper), 1]
// and widths (2 / n * (1 - exp(lower - upper)))^-2.
func (e *ExpNormal) ResetParameters() {
	start := math.Exp(-e.upper + e.lower)
	means := e.means.Raw().AsFloat64()
	linspace(means, start, 1)

	w := 2.0 / float64(len(means)) * (1 - start)
	beta := 1 / (w * w)
	betas := e.betas.Raw().AsFloat64()
	for i := range betas {
		betas[i] = beta
	}
}

// Forward computes the features for distances d of shape [E].
func (e *ExpNormal) Forward(d *tensor.Tensor) *tensor.Tensor {
	b := d.Backend()
	n := e.NumRBF()

	col := d.Reshape(d.NumElements(), 1)
	env := e.envelope.Forward(col)
	x := col.MulScalar(-e.alpha).AddScalar(e.alpha * e.lower).Exp().Sub(e.means.On(b).Reshape(1, n))
	return env.Mul(x.Mul(x).Mul(e.betas.On(b).Reshape(1, n)).MulScalar(-1).Exp())
}

// NumRBF returns the number of features.
func (e *ExpNormal) NumRBF() int {
	return e.means.Raw().NumElements()
}

// Parameters returns [means, betas].
func (e *ExpNormal) Parameters() []*nn.Parameter {
	return []*nn.Parameter{e.means, e.betas}
}
