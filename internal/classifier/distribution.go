package classifier

import (
	"cmp"
	"math"
	"slices"

	"github.com/starford/subtaste/internal/archetype"
)

// Distribution maps archetypes to probability mass.
type Distribution map[archetype.ID]float64

// Weighted is one entry of a sorted distribution.
type Weighted struct {
	ID     archetype.ID `json:"designation"`
	Weight float64      `json:"weight"`
}

// Uniform returns equal mass over all twelve archetypes.
func Uniform() Distribution {
	d := make(Distribution, archetype.Count)
	for _, id := range archetype.All {
		d[id] = 1.0 / archetype.Count
	}
	return d
}

// Clone returns a copy of d.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sum returns the total mass.
func (d Distribution) Sum() float64 {
	var s float64
	for _, id := range d.order() {
		s += d[id]
	}
	return s
}

// Entropy returns the Shannon entropy in nats.
func (d Distribution) Entropy() float64 {
	var h float64
	for _, id := range d.order() {
		if p := d[id]; p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

// Normalize rescales d to sum to 1. A distribution with no positive mass
// becomes uniform.
func (d Distribution) Normalize() Distribution {
	sum := d.Sum()
	if !(sum > 0) || math.IsInf(sum, 0) {
		return Uniform()
	}
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v / sum
	}
	return out
}

// Filter drops entries below threshold and renormalises the rest. When
// nothing survives the result is uniform.
func (d Distribution) Filter(threshold float64) Distribution {
	kept := make(Distribution, len(d))
	for k, v := range d {
		if v >= threshold {
			kept[k] = v
		}
	}
	if len(kept) == 0 {
		return Uniform()
	}
	return kept.Normalize()
}

// Sorted returns entries by descending weight; ties keep catalog order.
func (d Distribution) Sorted() []Weighted {
	out := make([]Weighted, 0, len(d))
	for _, id := range d.order() {
		out = append(out, Weighted{ID: id, Weight: d[id]})
	}
	slices.SortStableFunc(out, func(a, b Weighted) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	return out
}

// Top returns the highest-weighted entry.
func (d Distribution) Top() (Weighted, bool) {
	s := d.Sorted()
	if len(s) == 0 {
		return Weighted{}, false
	}
	return s[0], true
}

// order lists the keys of d in catalog order, with unknown ids last.
func (d Distribution) order() []archetype.ID {
	ids := make([]archetype.ID, 0, len(d))
	for _, id := range archetype.All {
		if _, ok := d[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == len(d) {
		return ids
	}
	var extra []archetype.ID
	for id := range d {
		if !id.Valid() {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	return append(ids, extra...)
}

// TotalVariation returns half the L1 distance between a and b over the
// union of their keys.
func TotalVariation(a, b Distribution) float64 {
	var sum float64
	for k, va := range a {
		sum += math.Abs(va - b[k])
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			sum += math.Abs(vb)
		}
	}
	return sum / 2
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty.
func Cosine(a, b Distribution) float64 {
	var dot, na, nb float64
	for _, id := range archetype.All {
		x, y := a[id], b[id]
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
