package genome

import (
	"time"

	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/psychometric"
	"github.com/starford/subtaste/internal/signal"
)

// Encode classifies signals from the default profile and wraps the result
// in a version 1 genome. The signals seed the history.
func Encode(ownerID string, signals []signal.Signal, cfg classifier.Config, now time.Time) Genome {
	g := New(ownerID, classifier.Classify(signals, nil, cfg), now)
	g.Behaviour.SignalHistory = appendEvents(nil, ownerID, signals, now)
	return g
}

// Update reclassifies newSignals on top of the stored profile. The version
// goes up by one even when newSignals is empty.
func Update(g Genome, newSignals []signal.Signal, cfg classifier.Config, now time.Time) Genome {
	out := g.Clone()
	prior := out.Engine.Profile
	out.ApplyResult(classifier.Classify(newSignals, &prior, cfg))
	out.Behaviour.SignalHistory = appendEvents(out.Behaviour.SignalHistory, out.OwnerID, newSignals, now)
	out.Behaviour.LastCalibration = now
	out.Touch(now)
	return out
}

// appendEvents appends signals as events and keeps the newest MaxHistory.
func appendEvents(history []signal.Event, ownerID string, signals []signal.Signal, now time.Time) []signal.Event {
	out := make([]signal.Event, 0, len(history)+len(signals))
	out = append(out, history...)
	for _, s := range signals {
		out = append(out, signal.NewEvent(ownerID, s, now))
	}
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}

// Merge blends secondary into primary. weight is the share given to
// secondary. The merged profile is reclassified with no new signals and the
// histories are concatenated under the cap. The result keeps primary's
// identity and reveal state.
func Merge(primary, secondary Genome, weight float64, cfg classifier.Config, now time.Time) Genome {
	out := primary.Clone()
	profile := psychometric.Merge(secondary.Engine.Profile, primary.Engine.Profile, weight)
	out.ApplyResult(classifier.Classify(nil, &profile, cfg))

	history := append(out.Behaviour.SignalHistory, secondary.Behaviour.SignalHistory...)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	out.Behaviour.SignalHistory = history
	out.Behaviour.LastCalibration = now
	out.Touch(now)
	return out
}

// Similarity is the cosine similarity of the two archetype distributions.
func Similarity(a, b Genome) float64 {
	return classifier.Cosine(a.Archetype.Distribution, b.Archetype.Distribution)
}
