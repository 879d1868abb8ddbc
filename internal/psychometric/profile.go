// Package psychometric computes continuous trait profiles from signals and
// compares them against archetype affinity vectors.
package psychometric

import (
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/signal"
)

// LearningRate scales each archetype weight into a trait step.
const LearningRate = 0.1

// Facet spread for the general openness adjustment.
const (
	fantasyWeight    = 0.8
	aestheticsWeight = 1.0
	feelingsWeight   = 0.6
	actionsWeight    = 0.4
	ideasWeight      = 0.7
	valuesWeight     = 0.5
)

// Openness holds the six openness facets.
type Openness struct {
	Fantasy    float64 `json:"fantasy"`
	Aesthetics float64 `json:"aesthetics"`
	Feelings   float64 `json:"feelings"`
	Actions    float64 `json:"actions"`
	Ideas      float64 `json:"ideas"`
	Values     float64 `json:"values"`
}

// Mean returns the average of the six facets.
func (o Openness) Mean() float64 {
	return (o.Fantasy + o.Aesthetics + o.Feelings + o.Actions + o.Ideas + o.Values) / 6
}

// Taste holds the five taste dimensions.
type Taste struct {
	Mellow        float64 `json:"mellow"`
	Unpretentious float64 `json:"unpretentious"`
	Sophisticated float64 `json:"sophisticated"`
	Intense       float64 `json:"intense"`
	Contemporary  float64 `json:"contemporary"`
}

// Profile is a trait profile. Every field lies in [0,1].
type Profile struct {
	Openness  Openness `json:"openness"`
	Intellect float64  `json:"intellect"`
	Taste     Taste    `json:"musicPreferences"`
}

// Delta is an additive adjustment to a Profile.
type Delta struct {
	Openness  Openness
	Intellect float64
	Taste     Taste
}

// Default returns the uninformative all-0.5 profile.
func Default() Profile {
	return Profile{
		Openness:  Openness{0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
		Intellect: 0.5,
		Taste:     Taste{0.5, 0.5, 0.5, 0.5, 0.5},
	}
}

// ExtractDeltas produces one delta per explicit signal that carries an
// archetype weight map, in input order.
func ExtractDeltas(signals []signal.Signal) []Delta {
	var out []Delta
	for _, s := range signals {
		if s.Type != signal.Explicit || s.Explicit == nil || s.Explicit.ArchetypeWeights == nil {
			continue
		}
		out = append(out, weightsToDelta(s.Explicit.ArchetypeWeights))
	}
	return out
}

func weightsToDelta(weights map[archetype.ID]float64) Delta {
	var d Delta
	// Canonical order keeps floating point sums reproducible.
	for _, id := range archetype.All {
		w, ok := weights[id]
		if !ok {
			continue
		}
		aff := archetype.AffinityOf(id)
		scale := w * LearningRate

		o := (aff.Openness - 0.5) * scale
		d.Openness.Fantasy += o * fantasyWeight
		d.Openness.Aesthetics += o * aestheticsWeight
		d.Openness.Feelings += o * feelingsWeight
		d.Openness.Actions += o * actionsWeight
		d.Openness.Ideas += o * ideasWeight
		d.Openness.Values += o * valuesWeight

		d.Intellect += (aff.Intellect - 0.5) * scale

		d.Taste.Mellow += (aff.Mellow - 0.5) * scale
		d.Taste.Unpretentious += (aff.Unpretentious - 0.5) * scale
		d.Taste.Sophisticated += (aff.Sophisticated - 0.5) * scale
		d.Taste.Intense += (aff.Intense - 0.5) * scale
		d.Taste.Contemporary += (aff.Contemporary - 0.5) * scale
	}
	return d
}

// ApplyDeltas folds deltas onto a copy of base, clamping each field to [0,1]
// after every addition.
func ApplyDeltas(base Profile, deltas []Delta) Profile {
	p := base
	for _, d := range deltas {
		p.Openness.Fantasy = clamp01(p.Openness.Fantasy + d.Openness.Fantasy)
		p.Openness.Aesthetics = clamp01(p.Openness.Aesthetics + d.Openness.Aesthetics)
		p.Openness.Feelings = clamp01(p.Openness.Feelings + d.Openness.Feelings)
		p.Openness.Actions = clamp01(p.Openness.Actions + d.Openness.Actions)
		p.Openness.Ideas = clamp01(p.Openness.Ideas + d.Openness.Ideas)
		p.Openness.Values = clamp01(p.Openness.Values + d.Openness.Values)

		p.Intellect = clamp01(p.Intellect + d.Intellect)

		p.Taste.Mellow = clamp01(p.Taste.Mellow + d.Taste.Mellow)
		p.Taste.Unpretentious = clamp01(p.Taste.Unpretentious + d.Taste.Unpretentious)
		p.Taste.Sophisticated = clamp01(p.Taste.Sophisticated + d.Taste.Sophisticated)
		p.Taste.Intense = clamp01(p.Taste.Intense + d.Taste.Intense)
		p.Taste.Contemporary = clamp01(p.Taste.Contemporary + d.Taste.Contemporary)
	}
	return p
}

// Merge blends a and b linearly: a*weight + b*(1-weight).
func Merge(a, b Profile, weight float64) Profile {
	w := clamp01(weight)
	mix := func(x, y float64) float64 { return clamp01(x*w + y*(1-w)) }
	return Profile{
		Openness: Openness{
			Fantasy:    mix(a.Openness.Fantasy, b.Openness.Fantasy),
			Aesthetics: mix(a.Openness.Aesthetics, b.Openness.Aesthetics),
			Feelings:   mix(a.Openness.Feelings, b.Openness.Feelings),
			Actions:    mix(a.Openness.Actions, b.Openness.Actions),
			Ideas:      mix(a.Openness.Ideas, b.Openness.Ideas),
			Values:     mix(a.Openness.Values, b.Openness.Values),
		},
		Intellect: mix(a.Intellect, b.Intellect),
		Taste: Taste{
			Mellow:        mix(a.Taste.Mellow, b.Taste.Mellow),
			Unpretentious: mix(a.Taste.Unpretentious, b.Taste.Unpretentious),
			Sophisticated: mix(a.Taste.Sophisticated, b.Taste.Sophisticated),
			Intense:       mix(a.Taste.Intense, b.Taste.Intense),
			Contemporary:  mix(a.Taste.Contemporary, b.Taste.Contemporary),
		},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
