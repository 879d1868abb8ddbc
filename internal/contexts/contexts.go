// Package contexts manages situational lenses on a genome. A context stores
// a sparse shift over the base distribution, learned from signals attributed
// to it.
package contexts

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/signal"
)

const (
	// ShiftThreshold is the smallest delta stored in a shift vector.
	ShiftThreshold = 0.05
	// ActiveWindow is how long a context stays active without updates.
	ActiveWindow = 30 * 24 * time.Hour
)

// ValidateLabel accepts any non-empty label up to 64 characters.
func ValidateLabel(label string) error {
	if err := validation.Validate(strings.TrimSpace(label), validation.Required, validation.RuneLength(1, 64)); err != nil {
		return fmt.Errorf("%w: context label: %v", apperr.ErrValidation, err)
	}
	return nil
}

// GetOrCreate returns the context for label with LastActive refreshed, or a
// new empty one. g is not modified.
func GetOrCreate(g genome.Genome, label string, now time.Time) genome.ContextProfile {
	if c, ok := g.Behaviour.Contexts[label]; ok {
		shift := make(map[archetype.ID]float64, len(c.Shift))
		for id, v := range c.Shift {
			shift[id] = v
		}
		c.Shift = shift
		c.LastActive = now
		return c
	}
	return genome.ContextProfile{
		ID:         uuid.NewString(),
		Label:      label,
		Shift:      map[archetype.ID]float64{},
		LastActive: now,
	}
}

// Update classifies signals under the context's scoring config, starting
// from the genome's profile, and stores every per-archetype delta from the
// base distribution larger than ShiftThreshold.
func Update(g genome.Genome, label string, signals []signal.Signal, tuning classifier.Tuning, now time.Time) (genome.Genome, error) {
	if err := ValidateLabel(label); err != nil {
		return genome.Genome{}, err
	}
	ctx := GetOrCreate(g, label, now)

	prior := g.Engine.Profile
	res := classifier.Classify(signals, &prior, tuning.ForContext(label))

	shift := make(map[archetype.ID]float64)
	for _, id := range archetype.All {
		delta := res.Classification.Distribution[id] - g.Archetype.Distribution[id]
		if math.Abs(delta) > ShiftThreshold {
			shift[id] = delta
		}
	}
	ctx.Shift = shift

	out := g.Clone()
	out.Behaviour.Contexts[label] = ctx
	out.Touch(now)
	return out, nil
}

// Distribution applies the context shift to the base distribution, clamps
// each entry to [0,1] and renormalises. Without a stored context it returns
// the base distribution.
func Distribution(g genome.Genome, label string) classifier.Distribution {
	ctx, ok := g.Behaviour.Contexts[label]
	if !ok {
		return g.Archetype.Distribution.Clone()
	}
	out := make(classifier.Distribution, archetype.Count)
	for _, id := range archetype.All {
		v := g.Archetype.Distribution[id] + ctx.Shift[id]
		out[id] = math.Max(0, math.Min(1, v))
	}
	return out.Normalize()
}

// Primary is the top entry of the contextual distribution.
func Primary(g genome.Genome, label string) classifier.Weighted {
	top, _ := Distribution(g, label).Top()
	return top
}

// Detection is the outcome of Detect.
type Detection struct {
	Label      string   `json:"context"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"signals"`
}

// Detect guesses which standard context a batch of signals came from.
// Confidence is the winning score over one plus the total score. Ties go to
// Creating, then Consuming.
func Detect(signals []signal.Signal) Detection {
	indicators := []string{}
	scores := map[string]float64{
		classifier.ContextCreating:  0,
		classifier.ContextConsuming: 0,
		classifier.ContextCurating:  0,
	}
	for _, s := range signals {
		if s.Source == signal.SourceRefyn {
			scores[classifier.ContextCreating] += 2
			indicators = append(indicators, "refyn-source")
		}
		switch s.Type {
		case signal.Explicit:
			scores[classifier.ContextCurating]++
		case signal.UnintentionalImplicit:
			scores[classifier.ContextConsuming]++
		}
		switch s.Kind() {
		case signal.KindSave, signal.KindRating:
			scores[classifier.ContextCurating]++
			indicators = append(indicators, "curation-action")
		case signal.KindDwell, signal.KindRepeat:
			scores[classifier.ContextConsuming]++
			indicators = append(indicators, "consumption-action")
		}
	}

	total := 1.0
	best := Detection{Label: classifier.ContextCreating, Indicators: indicators}
	bestScore := -1.0
	for _, label := range []string{classifier.ContextCreating, classifier.ContextConsuming, classifier.ContextCurating} {
		total += scores[label]
		if scores[label] > bestScore {
			best.Label, bestScore = label, scores[label]
		}
	}
	best.Confidence = bestScore / total
	return best
}

// Active returns contexts used within ActiveWindow, most recent first.
func Active(g genome.Genome, now time.Time) []genome.ContextProfile {
	out := make([]genome.ContextProfile, 0, len(g.Behaviour.Contexts))
	for _, c := range g.Behaviour.Contexts {
		if now.Sub(c.LastActive) < ActiveWindow {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b genome.ContextProfile) int {
		if c := b.LastActive.Compare(a.LastActive); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
