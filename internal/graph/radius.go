// Package graph builds the neighbor graph of a batch of molecules.
package graph

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// maxCell bounds cell coordinates so the float to int64 conversion stays
// defined for any finite position. Clamping is monotonic, so atoms in
// adjacent cells still land in adjacent or equal cells.
const maxCell = 1 << 52

// EdgeSet is a directed neighbor graph. Edge k carries a message from
// atom Senders[k] to atom Receivers[k].
//
// Edges are sorted by receiver, then by sender.
type EdgeSet struct {
	Receivers []int64
	Senders   []int64
}

// Len returns the number of edges.
func (e EdgeSet) Len() int {
	return len(e.Receivers)
}

type cellKey struct {
	molecule int64
	x, y, z  int64
}

type candidate struct {
	index int64
	dist2 float64
}

// RadiusGraph connects every pair of distinct atoms of the same molecule
// closer than cutoff, in both directions.
//
// Atoms are bucketed into cubic cells of edge cutoff, so only the 27
// surrounding cells are searched per atom. maxNeighbors <= 0 keeps every
// pair within cutoff. A positive maxNeighbors keeps only the nearest senders
// per receiver, ties broken by lower index. That truncation is a hard
// distance rank, so energies and forces jump when two neighbors swap rank.
//
// molecule may be nil, in which case all atoms belong to molecule 0.
func RadiusGraph(positions [][3]float64, molecule []int64, cutoff float64, maxNeighbors int) (EdgeSet, error) {
	if !(cutoff > 0) || math.IsInf(cutoff, 0) {
		return EdgeSet{}, fmt.Errorf("graph: cutoff must be positive and finite, got %g", cutoff)
	}
	if molecule != nil && len(molecule) != len(positions) {
		return EdgeSet{}, fmt.Errorf("graph: %d molecule ids for %d atoms", len(molecule), len(positions))
	}

	mol := func(i int) int64 {
		if molecule == nil {
			return 0
		}
		return molecule[i]
	}

	cellOf := func(i int) cellKey {
		p := positions[i]
		return cellKey{
			molecule: mol(i),
			x:        cellIndex(p[0], cutoff),
			y:        cellIndex(p[1], cutoff),
			z:        cellIndex(p[2], cutoff),
		}
	}

	cells := make(map[cellKey][]int64)
	for i, p := range positions {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return EdgeSet{}, fmt.Errorf("graph: atom %d has non-finite position %v", i, p)
			}
		}
		k := cellOf(i)
		cells[k] = append(cells[k], int64(i))
	}

	cutoff2 := cutoff * cutoff
	var edges EdgeSet
	var found []candidate

	for i := range positions {
		found = found[:0]
		home := cellOf(i)

		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					k := cellKey{home.molecule, home.x + dx, home.y + dy, home.z + dz}
					for _, j := range cells[k] {
						if int(j) == i {
							continue
						}
						d2 := dist2(positions[i], positions[j])
						if d2 < cutoff2 {
							found = append(found, candidate{index: j, dist2: d2})
						}
					}
				}
			}
		}

		if maxNeighbors > 0 && len(found) > maxNeighbors {
			slices.SortFunc(found, func(a, b candidate) int {
				if c := cmp.Compare(a.dist2, b.dist2); c != 0 {
					return c
				}
				return cmp.Compare(a.index, b.index)
			})
			found = found[:maxNeighbors]
		}
		slices.SortFunc(found, func(a, b candidate) int {
			return cmp.Compare(a.index, b.index)
		})

		for _, c := range found {
			edges.Receivers = append(edges.Receivers, int64(i))
			edges.Senders = append(edges.Senders, c.index)
		}
	}

	return edges, nil
}

func cellIndex(v, cutoff float64) int64 {
	c := math.Floor(v / cutoff)
	return int64(max(-maxCell, min(maxCell, c)))
}

func dist2(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}
