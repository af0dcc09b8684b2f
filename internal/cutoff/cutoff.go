// Package cutoff implements the smooth cosine envelope that makes
// interatomic interactions vanish at the cutoff radius.
package cutoff

import (
	"fmt"
	"math"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Cosine is a cosine envelope between Lower and Upper.
//
// With Lower == 0 it decays from 1 at d = 0 to 0 at d = Upper. With
// Lower > 0 it rises from 0 at d = Lower to 1 at the midpoint and falls
// back to 0 at d = Upper. It is 0 outside the open interval.
type Cosine struct {
	Lower float64
	Upper float64
}

// New returns a Cosine envelope, failing unless 0 <= lower < upper.
func New(lower, upper float64) (Cosine, error) {
	if lower < 0 || !(lower < upper) {
		return Cosine{}, fmt.Errorf("cutoff: need 0 <= lower < upper, got lower=%g upper=%g", lower, upper)
	}
	return Cosine{Lower: lower, Upper: upper}, nil
}

// phase returns the cosine argument for d and whether d is inside the support.
func (c Cosine) phase(d float64) (float64, bool) {
	if c.Lower > 0 {
		return math.Pi * (2*(d-c.Lower)/(c.Upper-c.Lower) + 1), d > c.Lower && d < c.Upper
	}
	return math.Pi * d / c.Upper, d < c.Upper
}

// Eval returns the envelope value at distance d.
func (c Cosine) Eval(d float64) float64 {
	p, in := c.phase(d)
	if !in {
		return 0
	}
	return 0.5 * (math.Cos(p) + 1)
}

// Forward applies the envelope to a tensor of distances of any shape.
//
// The support mask is a constant, so gradients are exact inside the
// support and zero outside.
func (c Cosine) Forward(d *tensor.Tensor) *tensor.Tensor {
	dist := d.Data()
	mask := make([]float64, len(dist))
	for i, v := range dist {
		if _, in := c.phase(v); in {
			mask[i] = 1
		}
	}
	m := tensor.New(tensor.MustFloat64Raw(mask, d.Shape()), d.Backend())

	var p *tensor.Tensor
	if c.Lower > 0 {
		scale := 2 * math.Pi / (c.Upper - c.Lower)
		p = d.AddScalar(-c.Lower).MulScalar(scale).AddScalar(math.Pi)
	} else {
		p = d.MulScalar(math.Pi / c.Upper)
	}
	return p.Cos().AddScalar(1).MulScalar(0.5).Mul(m)
}
