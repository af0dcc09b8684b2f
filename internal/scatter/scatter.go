// Package scatter reduces per-atom rows into per-molecule rows.
package scatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/cfconv/internal/tensor"
)

// Readout selects how rows of one group are combined.
type Readout int

// Supported readouts.
const (
	ReadoutSum Readout = iota
	ReadoutMean
)

// ParseReadout accepts "add", "sum" and "mean".
func ParseReadout(name string) (Readout, error) {
	switch name {
	case "add", "sum":
		return ReadoutSum, nil
	case "mean":
		return ReadoutMean, nil
	}
	return 0, fmt.Errorf("unknown readout %q, choose from %s", name, strings.Join(ReadoutNames(), ", "))
}

// ReadoutNames returns the identifiers accepted by ParseReadout.
func ReadoutNames() []string {
	return []string{"add", "sum", "mean"}
}

// String returns the canonical identifier.
func (r Readout) String() string {
	switch r {
	case ReadoutSum:
		return "add"
	case ReadoutMean:
		return "mean"
	}
	return fmt.Sprintf("Readout(%d)", int(r))
}

// Groups assigns rows to dense segments.
//
// IDs holds the distinct keys in ascending order; Index[i] is the segment of
// row i; Counts[s] is the number of rows in segment s.
type Groups struct {
	IDs    []int64
	Index  []int64
	Counts []int
}

// NewGroups groups rows by arbitrary int64 keys.
func NewGroups(keys []int64) Groups {
	ids := slices.Clone(keys)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	g := Groups{
		IDs:    ids,
		Index:  make([]int64, len(keys)),
		Counts: make([]int, len(ids)),
	}
	for i, k := range keys {
		s, _ := slices.BinarySearch(ids, k)
		g.Index[i] = int64(s)
		g.Counts[s]++
	}
	return g
}

// Select returns the groups of the given rows. Segments keep their IDs
// even when no selected row falls into them.
func (g Groups) Select(rows []int) Groups {
	out := Groups{
		IDs:    g.IDs,
		Index:  make([]int64, len(rows)),
		Counts: make([]int, len(g.IDs)),
	}
	for i, r := range rows {
		s := g.Index[r]
		out.Index[i] = s
		out.Counts[s]++
	}
	return out
}

// Len returns the number of segments.
func (g Groups) Len() int {
	return len(g.IDs)
}

// Sum adds the rows of x [N, ...] per segment into [Len(), ...].
func Sum(x *tensor.Tensor, g Groups) *tensor.Tensor {
	if x.Shape()[0] != len(g.Index) {
		panic(fmt.Sprintf("scatter.Sum: %d rows for %d group indices", x.Shape()[0], len(g.Index)))
	}
	return x.ScatterAdd(tensor.IndexRaw(g.Index), g.Len())
}

// Mean averages the rows of x [N, F] per segment. Empty segments yield zero.
func Mean(x *tensor.Tensor, g Groups) *tensor.Tensor {
	inv := make([]float64, g.Len())
	for s, c := range g.Counts {
		inv[s] = 1 / float64(max(c, 1))
	}
	scale := tensor.New(tensor.MustFloat64Raw(inv, tensor.Shape{g.Len(), 1}), x.Backend())
	return Sum(x, g).Mul(scale)
}

// Reduce dispatches on the readout.
func Reduce(x *tensor.Tensor, g Groups, r Readout) *tensor.Tensor {
	if r == ReadoutMean {
		return Mean(x, g)
	}
	return Sum(x, g)
}
