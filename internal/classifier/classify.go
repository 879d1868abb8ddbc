// Package classifier turns signals into a probability distribution over the
// twelve archetypes.
//
// Classification blends profile similarity with raw archetype weights carried
// by explicit signals, runs a temperature-scaled softmax, drops negligible
// mass and renormalises. Confidence couples each archetype's weight with how
// decisive the whole distribution is (one minus normalised entropy).
package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/psychometric"
	"github.com/starford/subtaste/internal/signal"
)

// Ranked is an archetype with its reported confidence.
type Ranked struct {
	ID         archetype.ID `json:"designation"`
	Glyph      string       `json:"glyph"`
	Confidence float64      `json:"confidence"`
}

func newRanked(id archetype.ID, confidence float64) Ranked {
	return Ranked{ID: id, Glyph: archetype.Glyph(id), Confidence: confidence}
}

// Classification is the public outcome of a classification.
type Classification struct {
	Primary      Ranked       `json:"primary"`
	Secondary    *Ranked      `json:"secondary"`
	Distribution Distribution `json:"distribution"`
}

// Validate checks the distribution invariant and that primary dominates.
func (c Classification) Validate() error {
	if len(c.Distribution) == 0 {
		return errors.New("classification: empty distribution")
	}
	for id, p := range c.Distribution {
		if !id.Valid() {
			return fmt.Errorf("classification: unknown archetype %q", id)
		}
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("classification: invalid weight %v for %s", p, id)
		}
	}
	if sum := c.Distribution.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("classification: distribution sums to %v", sum)
	}
	top, ok := c.Distribution[c.Primary.ID]
	if !ok {
		return fmt.Errorf("classification: primary %q missing from distribution", c.Primary.ID)
	}
	for id, p := range c.Distribution {
		if p > top {
			return fmt.Errorf("classification: %s outweighs primary %s", id, c.Primary.ID)
		}
	}
	if c.Primary.Confidence < 0 || c.Primary.Confidence > 1 {
		return fmt.Errorf("classification: primary confidence %v out of range", c.Primary.Confidence)
	}
	return nil
}

// Result carries the classification together with engine-only detail.
type Result struct {
	Classification    Classification                 `json:"classification"`
	Profile           psychometric.Profile           `json:"psychometrics"`
	PositionBalance   map[archetype.Position]float64 `json:"positionBalance"`
	Resonance         archetype.ResonancePair        `json:"resonance"`
	RawScores         map[archetype.ID]float64       `json:"rawScores"`
	BlendedScores     map[archetype.ID]float64       `json:"blendedScores"`
	Softmax           Distribution                   `json:"softmax"`
	OverallConfidence float64                        `json:"overallConfidence"`
}

// Classify runs the full pipeline. prior defaults to the neutral profile.
// Inputs are expected to be validated; unknown archetype ids in weight maps
// are ignored. The result is deterministic for fixed inputs.
func Classify(signals []signal.Signal, prior *psychometric.Profile, cfg Config) Result {
	base := psychometric.Default()
	if prior != nil {
		base = *prior
	}
	profile := psychometric.ApplyDeltas(base, psychometric.ExtractDeltas(signals))
	similarity := psychometric.AllSimilarities(profile)
	raw := signalScores(signals, cfg.SignalWeights)

	pw := cfg.PsychometricWeight
	combined := make(map[archetype.ID]float64, archetype.Count)
	for _, id := range archetype.All {
		combined[id] = similarity[id]*pw + raw[id]*(1-pw)
	}

	soft := softmax(combined, cfg.Temperature)
	filtered := soft.Filter(cfg.DistributionThreshold)
	ranked := filtered.Sorted()

	overall := 1 - soft.Entropy()/math.Log(archetype.Count)
	overall = math.Max(0, math.Min(1, overall))

	cls := Classification{
		Primary:      newRanked(ranked[0].ID, ranked[0].Weight*overall),
		Distribution: filtered,
	}
	if len(ranked) > 1 && ranked[1].Weight >= cfg.SecondaryThreshold {
		sec := newRanked(ranked[1].ID, ranked[1].Weight*overall)
		cls.Secondary = &sec
	}

	return Result{
		Classification:    cls,
		Profile:           profile,
		PositionBalance:   archetype.PositionBalance(filtered),
		Resonance:         archetype.ResonanceOf(cls.Primary.ID),
		RawScores:         raw,
		BlendedScores:     combined,
		Softmax:           soft,
		OverallConfidence: overall,
	}
}

// signalScores accumulates weight x type multiplier x temporal weight per
// archetype and scales by the maximum (divisor at least 1).
func signalScores(signals []signal.Signal, weights SignalWeights) map[archetype.ID]float64 {
	scores := make(map[archetype.ID]float64, archetype.Count)
	for _, s := range signals {
		aw := s.ArchetypeWeights()
		if len(aw) == 0 {
			continue
		}
		mult := weights.For(s.Type) * s.Weight()
		for _, id := range archetype.All {
			if w, ok := aw[id]; ok && !math.IsNaN(w) && !math.IsInf(w, 0) {
				scores[id] += w * mult
			}
		}
	}

	maxScore := 1.0
	for _, id := range archetype.All {
		if scores[id] > maxScore {
			maxScore = scores[id]
		}
	}
	for _, id := range archetype.All {
		scores[id] /= maxScore
	}
	return scores
}

// softmax computes exp(score*temperature) normalised over all archetypes.
// Scores are shifted by their maximum first, which leaves the result
// unchanged but keeps exp finite.
func softmax(scores map[archetype.ID]float64, temperature float64) Distribution {
	peak := math.Inf(-1)
	for _, id := range archetype.All {
		peak = math.Max(peak, scores[id])
	}

	out := make(Distribution, archetype.Count)
	var sum float64
	for _, id := range archetype.All {
		e := math.Exp((scores[id] - peak) * temperature)
		out[id] = e
		sum += e
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return Uniform()
	}
	for id := range out {
		out[id] /= sum
	}
	return out
}

// Quick classifies signals with the default profile and config.
func Quick(signals []signal.Signal) Classification {
	return Classify(signals, nil, DefaultConfig()).Classification
}
