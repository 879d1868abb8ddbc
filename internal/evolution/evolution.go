// Package evolution keeps a genome current as signals accumulate: temporal
// decay, drift detection, history pruning and the full evolve cycle.
package evolution

import (
	"cmp"
	"math"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/signal"
)

const day = 24 * time.Hour

// Config holds the evolution tunables.
type Config struct {
	RecalibrationDays int `yaml:"recalibration_days" json:"recalibrationDays"`
	// DailyDecay is the per-day decay factor. Zero inherits the scoring
	// configuration's TemporalDecay.
	DailyDecay     float64 `yaml:"daily_decay" json:"dailyDecay"`
	MinimumSignals int     `yaml:"minimum_signals" json:"minimumSignals"`
	MaxHistory     int     `yaml:"max_history" json:"maxHistory"`
	DriftThreshold float64 `yaml:"drift_threshold" json:"driftThreshold"`
}

func DefaultConfig() Config {
	return Config{
		RecalibrationDays: 30,
		DailyDecay:        0,
		MinimumSignals:    3,
		MaxHistory:        genome.MaxHistory,
		DriftThreshold:    0.2,
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RecalibrationDays, validation.Required, validation.Min(1)),
		validation.Field(&c.DailyDecay, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinimumSignals, validation.Min(0)),
		validation.Field(&c.MaxHistory, validation.Required, validation.Min(1), validation.Max(genome.MaxHistory)),
		validation.Field(&c.DriftThreshold, validation.Required, validation.Min(0.0), validation.Max(1.0)),
	)
}

// DecayFactor returns the daily decay used by Evolve under cls.
func (c Config) DecayFactor(cls classifier.Config) float64 {
	if c.DailyDecay > 0 {
		return c.DailyDecay
	}
	return cls.TemporalDecay
}

func ageDays(ts, now time.Time) float64 {
	return math.Max(0, now.Sub(ts).Hours()/24)
}

// ApplyTemporalDecay returns copies of signals annotated with
// factor^ageDays. Signals from the future count as age zero.
func ApplyTemporalDecay(signals []signal.Signal, factor float64, now time.Time) []signal.Signal {
	out := make([]signal.Signal, len(signals))
	for i, s := range signals {
		out[i] = s.WithTemporalWeight(math.Pow(factor, ageDays(s.Timestamp, now)))
	}
	return out
}

func decayEvents(events []signal.Event, factor float64, now time.Time) []signal.Event {
	out := make([]signal.Event, len(events))
	for i, e := range events {
		e.Signal = e.Signal.WithTemporalWeight(math.Pow(factor, ageDays(e.Signal.Timestamp, now)))
		out[i] = e
	}
	return out
}

// Drift is the total variation distance between two distributions.
func Drift(current, historical classifier.Distribution) float64 {
	return classifier.TotalVariation(current, historical)
}

// DetectDrift reports whether the distance reaches threshold.
func DetectDrift(current, historical classifier.Distribution, threshold float64) bool {
	return Drift(current, historical) >= threshold
}

// HistoricalConfidence scores how much evidence history holds. Below
// minSignals it returns a fixed floor of 0.3.
func HistoricalConfidence(history []signal.Event, minSignals int, now time.Time) float64 {
	if len(history) < minSignals {
		return 0.3
	}
	recent := 0
	sources := make(map[signal.Source]struct{})
	for _, e := range history {
		if ageDays(e.Signal.Timestamp, now) < 30 {
			recent++
		}
		sources[e.Signal.Source] = struct{}{}
	}
	count := math.Min(float64(len(history))/50, 1)
	recency := math.Min(float64(recent)/20, 1)
	diversity := math.Min(float64(len(sources))/3, 1)
	return 0.4*count + 0.4*recency + 0.2*diversity
}

// Prune keeps the limit most recent events by signal timestamp. The result is
// in chronological order.
func Prune(history []signal.Event, limit int) []signal.Event {
	out := slices.Clone(history)
	if len(out) <= limit {
		return out
	}
	slices.SortStableFunc(out, func(a, b signal.Event) int {
		return cmp.Compare(a.Signal.Timestamp.UnixNano(), b.Signal.Timestamp.UnixNano())
	})
	return out[len(out)-limit:]
}

// Evolve runs the full cycle: decay the stored history, append newSignals,
// prune, reclassify the pruned history against the stored profile, and
// recompute confidence from history.
func Evolve(g genome.Genome, newSignals []signal.Signal, cfg Config, cls classifier.Config, now time.Time) genome.Genome {
	out := g.Clone()

	factor := cfg.DecayFactor(cls)
	history := decayEvents(out.Behaviour.SignalHistory, factor, now)
	for _, s := range ApplyTemporalDecay(newSignals, factor, now) {
		history = append(history, signal.NewEvent(out.OwnerID, s, now))
	}
	history = Prune(history, cfg.MaxHistory)

	prior := out.Engine.Profile
	out.ApplyResult(classifier.Classify(signal.Signals(history), &prior, cls))
	out.Behaviour.SignalHistory = history
	out.Behaviour.Confidence = HistoricalConfidence(history, cfg.MinimumSignals, now)
	out.Behaviour.LastCalibration = now
	out.Touch(now)
	return out
}

// NeedsRecalibration reports whether at least days have passed since the
// last calibration.
func NeedsRecalibration(g genome.Genome, days int, now time.Time) bool {
	return now.Sub(g.Behaviour.LastCalibration) >= time.Duration(days)*day
}

// Stability compares the classification of the last 30 days with that of
// the 30 to 90 days before. It returns the overlap of the two distributions,
// or 0.5 when either window is too thin.
func Stability(g genome.Genome, cls classifier.Config, now time.Time) float64 {
	history := g.Behaviour.SignalHistory
	if len(history) < 10 {
		return 0.5
	}
	var recent, older []signal.Signal
	for _, e := range history {
		switch age := ageDays(e.Signal.Timestamp, now); {
		case age < 30:
			recent = append(recent, e.Signal)
		case age < 90:
			older = append(older, e.Signal)
		}
	}
	if len(older) < 5 {
		return 0.5
	}
	a := classifier.Classify(recent, nil, cls).Classification.Distribution
	b := classifier.Classify(older, nil, cls).Classification.Distribution
	var overlap float64
	for _, w := range a.Sorted() {
		overlap += math.Min(w.Weight, b[w.ID])
	}
	return overlap
}

// Report summarises the evolution state of a genome.
type Report struct {
	NeedsRecalibration bool      `json:"needsRecalibration"`
	LastCalibration    time.Time `json:"lastCalibration"`
	Confidence         float64   `json:"historicalConfidence"`
	Stability          float64   `json:"stability"`
	HistorySize        int       `json:"historySize"`
}

// Inspect builds a Report for g.
func Inspect(g genome.Genome, cfg Config, cls classifier.Config, now time.Time) Report {
	return Report{
		NeedsRecalibration: NeedsRecalibration(g, cfg.RecalibrationDays, now),
		LastCalibration:    g.Behaviour.LastCalibration,
		Confidence:         HistoricalConfidence(g.Behaviour.SignalHistory, cfg.MinimumSignals, now),
		Stability:          Stability(g, cls, now),
		HistorySize:        len(g.Behaviour.SignalHistory),
	}
}
