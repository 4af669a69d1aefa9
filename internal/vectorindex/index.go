// Package vectorindex provides an in-memory nearest-neighbor index over angular distance.
//
// The index is exact: Nearest scores every stored vector. It is built fresh for each
// search and discarded afterwards, so there is no incremental update or persistence.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotBuilt is returned by Nearest before Build has been called.
var ErrNotBuilt = errors.New("index not built")

// ErrBuilt is returned by Add after Build has been called.
var ErrBuilt = errors.New("index already built")

// Neighbor is a search hit. Item is the caller's identifier passed to Add.
type Neighbor struct {
	Item     int
	Distance float64
}

type entry struct {
	item int
	unit []float64
}

// Index holds unit-normalized vectors of a fixed dimension.
type Index struct {
	dim     int
	entries []entry
	built   bool
}

// New creates an empty index for vectors of length dim.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Index{dim: dim}, nil
}

// Dim returns the vector length accepted by the index.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *Index) Len() int { return len(ix.entries) }

// Add stores vec under item. Insertion order breaks distance ties.
func (ix *Index) Add(item int, vec []float32) error {
	if ix.built {
		return ErrBuilt
	}
	if len(vec) != ix.dim {
		return fmt.Errorf("vector for item %d has dimension %d, want %d", item, len(vec), ix.dim)
	}
	ix.entries = append(ix.entries, entry{item: item, unit: normalize(vec)})
	return nil
}

// Build freezes the index. No more vectors can be added.
func (ix *Index) Build() {
	ix.built = true
}

// Nearest returns up to k neighbors of vec ordered by non-decreasing angular distance,
// ties in insertion order.
func (ix *Index) Nearest(vec []float32, k int) ([]Neighbor, error) {
	if !ix.built {
		return nil, ErrNotBuilt
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("query has dimension %d, want %d", len(vec), ix.dim)
	}
	if k <= 0 || len(ix.entries) == 0 {
		return []Neighbor{}, nil
	}

	q := normalize(vec)
	results := make([]Neighbor, len(ix.entries))
	for i, e := range ix.entries {
		results[i] = Neighbor{Item: e.item, Distance: angular(q, e.unit)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	return results[:min(k, len(results))], nil
}

// normalize returns vec scaled to unit length. A zero vector stays zero.
func normalize(vec []float32) []float64 {
	out := make([]float64, len(vec))
	var norm float64
	for i, v := range vec {
		out[i] = float64(v)
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

// angular is the Euclidean distance between unit vectors, sqrt(2 - 2cos).
// It ranges from 0 (same direction) to 2 (opposite). A zero vector is at distance sqrt(2) from everything.
func angular(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	d := 2 - 2*dot
	if d < 0 {
		d = 0
	}
	return math.Sqrt(d)
}
