package psychometric

import (
	"math"

	"github.com/starford/subtaste/internal/archetype"
)

// channels flattens a profile into the seven comparison channels.
func (p Profile) channels() [7]float64 {
	return [7]float64{
		p.Openness.Mean(),
		p.Intellect,
		p.Taste.Mellow,
		p.Taste.Unpretentious,
		p.Taste.Sophisticated,
		p.Taste.Intense,
		p.Taste.Contemporary,
	}
}

func affinityChannels(a archetype.Affinity) [7]float64 {
	return [7]float64{a.Openness, a.Intellect, a.Mellow, a.Unpretentious, a.Sophisticated, a.Intense, a.Contemporary}
}

// Similarity returns 1 minus the mean absolute distance between the profile
// and the archetype's affinity vector.
func Similarity(p Profile, id archetype.ID) float64 {
	pc := p.channels()
	ac := affinityChannels(archetype.AffinityOf(id))
	var sum float64
	for i := range pc {
		sum += math.Abs(pc[i] - ac[i])
	}
	return clamp01(1 - sum/float64(len(pc)))
}

// AllSimilarities returns the similarity to every archetype.
func AllSimilarities(p Profile) map[archetype.ID]float64 {
	out := make(map[archetype.ID]float64, archetype.Count)
	for _, id := range archetype.All {
		out[id] = Similarity(p, id)
	}
	return out
}
