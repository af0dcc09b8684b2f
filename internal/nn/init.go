package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/cfconv/internal/tensor"
)

// XavierUniform fills w with values drawn from the Glorot uniform
// distribution U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
//
// Weight matrices are stored [fan_out, fan_in].
func XavierUniform(w *tensor.RawTensor, rng *rand.Rand) {
	shape := w.Shape()
	fanOut, fanIn := shape[0], shape[1]
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := w.AsFloat64()
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
}

// Normal fills w with values drawn from N(0, 1).
func Normal(w *tensor.RawTensor, rng *rand.Rand) {
	data := w.AsFloat64()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
}

// Fill sets every element of w to v.
func Fill(w *tensor.RawTensor, v float64) {
	data := w.AsFloat64()
	for i := range data {
		data[i] = v
	}
}
