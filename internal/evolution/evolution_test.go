package evolution

import (
	"math"
	"testing"
	"time"

	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/signal"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * day) }

func event(src signal.Source, ts time.Time) signal.Event {
	s := signal.NewExplicit(src, signal.KindRating, map[archetype.ID]float64{archetype.Omen: 1}, ts)
	return signal.NewEvent("u", s, ts)
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.MaxHistory = genome.MaxHistory + 1
	if err := cfg.Validate(); err == nil {
		t.Error("max history above genome cap should fail")
	}
}

func TestApplyTemporalDecay(t *testing.T) {
	sigs := []signal.Signal{
		signal.NewImplicit(signal.IntentionalImplicit, signal.SourceFeed, signal.KindSave, "a", now),
		signal.NewImplicit(signal.IntentionalImplicit, signal.SourceFeed, signal.KindSave, "b", daysAgo(10)),
		signal.NewImplicit(signal.IntentionalImplicit, signal.SourceFeed, signal.KindSave, "c", now.Add(day)),
	}
	out := ApplyTemporalDecay(sigs, 0.99, now)
	if out[0].Weight() != 1 {
		t.Errorf("fresh weight = %v", out[0].Weight())
	}
	if want := math.Pow(0.99, 10); math.Abs(out[1].Weight()-want) > 1e-12 {
		t.Errorf("10 day weight = %v, want %v", out[1].Weight(), want)
	}
	if out[2].Weight() != 1 {
		t.Errorf("future weight = %v, want 1", out[2].Weight())
	}
	if sigs[1].TemporalWeight != nil {
		t.Error("input was annotated in place")
	}
}

func TestApplyTemporalDecayUnderflowKeepsZero(t *testing.T) {
	sigs := []signal.Signal{
		signal.NewImplicit(signal.IntentionalImplicit, signal.SourceFeed, signal.KindSave, "ancient", daysAgo(1200)),
		signal.NewImplicit(signal.IntentionalImplicit, signal.SourceFeed, signal.KindSave, "recent", daysAgo(60)),
	}
	out := ApplyTemporalDecay(sigs, 0.5, now)
	if out[0].Weight() != 0 {
		t.Errorf("ancient weight = %v, want 0", out[0].Weight())
	}
	if !(out[0].Weight() < out[1].Weight()) {
		t.Errorf("ancient signal outweighs recent: %v >= %v", out[0].Weight(), out[1].Weight())
	}
}

func TestDetectDrift(t *testing.T) {
	d := classifier.Distribution{archetype.Keth: 0.6, archetype.Void: 0.4}
	if DetectDrift(d, d.Clone(), 0.01) {
		t.Error("identical distributions should not drift")
	}
	disjoint := classifier.Distribution{archetype.Toll: 1}
	if got := Drift(d, disjoint); math.Abs(got-1) > 1e-12 {
		t.Errorf("drift = %v, want 1", got)
	}
	if !DetectDrift(d, disjoint, 0.2) {
		t.Error("disjoint distributions should drift")
	}
}

func TestHistoricalConfidence(t *testing.T) {
	if c := HistoricalConfidence([]signal.Event{event(signal.SourceQuiz, now)}, 3, now); c != 0.3 {
		t.Errorf("floor = %v, want 0.3", c)
	}

	var hist []signal.Event
	for i := 0; i < 50; i++ {
		src := []signal.Source{signal.SourceQuiz, signal.SourceFeed, signal.SourceSwipe}[i%3]
		hist = append(hist, event(src, daysAgo(i%5)))
	}
	if c := HistoricalConfidence(hist, 3, now); math.Abs(c-1) > 1e-12 {
		t.Errorf("saturated confidence = %v, want 1", c)
	}

	old := []signal.Event{event(signal.SourceQuiz, daysAgo(60)), event(signal.SourceQuiz, daysAgo(61)), event(signal.SourceQuiz, daysAgo(62))}
	want := 0.4*(3.0/50) + 0 + 0.2*(1.0/3)
	if c := HistoricalConfidence(old, 3, now); math.Abs(c-want) > 1e-12 {
		t.Errorf("old confidence = %v, want %v", c, want)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	hist := []signal.Event{event(signal.SourceQuiz, daysAgo(1)), event(signal.SourceQuiz, daysAgo(5)), event(signal.SourceQuiz, daysAgo(3))}
	got := Prune(hist, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if !got[0].Signal.Timestamp.Equal(daysAgo(3)) || !got[1].Signal.Timestamp.Equal(daysAgo(1)) {
		t.Errorf("pruned = %v, %v", got[0].Signal.Timestamp, got[1].Signal.Timestamp)
	}
	if len(Prune(hist, 10)) != 3 {
		t.Error("short history should be untouched")
	}
}

func TestEvolve(t *testing.T) {
	g := genome.Encode("u", nil, classifier.DefaultConfig(), daysAgo(40))
	sigs := []signal.Signal{
		signal.NewExplicit(signal.SourceQuiz, signal.KindChoice, map[archetype.ID]float64{archetype.Silt: 1}, now),
		signal.NewExplicit(signal.SourceSwipe, signal.KindChoice, map[archetype.ID]float64{archetype.Silt: 1}, now),
	}
	out := Evolve(g, sigs, DefaultConfig(), classifier.DefaultConfig(), now)
	if out.Version != g.Version+1 {
		t.Errorf("version = %d", out.Version)
	}
	if len(out.Behaviour.SignalHistory) != 2 {
		t.Errorf("history = %d", len(out.Behaviour.SignalHistory))
	}
	if out.Behaviour.Confidence != 0.3 {
		t.Errorf("confidence = %v, want floor 0.3", out.Behaviour.Confidence)
	}
	if !out.Behaviour.LastCalibration.Equal(now) {
		t.Error("lastCalibration not stamped")
	}
	if err := out.Validate(); err != nil {
		t.Fatal(err)
	}
	if !NeedsRecalibration(g, 30, now) || NeedsRecalibration(out, 30, now) {
		t.Error("recalibration flags wrong")
	}
}

func TestNeedsRecalibrationBoundary(t *testing.T) {
	g := genome.Encode("u", nil, classifier.DefaultConfig(), daysAgo(30))
	if !NeedsRecalibration(g, 30, now) {
		t.Error("exactly 30 days should need recalibration")
	}
	if NeedsRecalibration(g, 30, now.Add(-time.Second)) {
		t.Error("just under 30 days should not need recalibration")
	}
}

func TestEvolveDecayFactor(t *testing.T) {
	cls := classifier.DefaultConfig()
	cls.TemporalDecay = 0.5

	cfg := DefaultConfig()
	if got := cfg.DecayFactor(cls); got != 0.5 {
		t.Errorf("inherited factor = %v, want 0.5", got)
	}
	cfg.DailyDecay = 0.9
	if got := cfg.DecayFactor(cls); got != 0.9 {
		t.Errorf("explicit factor = %v, want 0.9", got)
	}

	old := signal.NewExplicit(signal.SourceQuiz, signal.KindChoice, map[archetype.ID]float64{archetype.Silt: 1}, daysAgo(2))
	out := Evolve(genome.Encode("u", nil, cls, daysAgo(2)), []signal.Signal{old}, DefaultConfig(), cls, now)
	if w := out.Behaviour.SignalHistory[0].Signal.Weight(); math.Abs(w-0.25) > 1e-12 {
		t.Errorf("decayed weight = %v, want 0.25", w)
	}
}

func TestEvolveRepeatedDoesNotCompound(t *testing.T) {
	cls := classifier.DefaultConfig()
	cls.TemporalDecay = 0.5

	old := signal.NewExplicit(signal.SourceQuiz, signal.KindChoice, map[archetype.ID]float64{archetype.Silt: 1}, daysAgo(2))
	g := Evolve(genome.Encode("u", nil, cls, daysAgo(2)), []signal.Signal{old}, DefaultConfig(), cls, now)
	for i := 0; i < 3; i++ {
		g = Evolve(g, nil, DefaultConfig(), cls, now)
	}
	if w := g.Behaviour.SignalHistory[0].Signal.Weight(); math.Abs(w-0.25) > 1e-12 {
		t.Errorf("weight after repeated evolution = %v, want 0.25", w)
	}
}

func TestStability(t *testing.T) {
	g := genome.Encode("u", nil, classifier.DefaultConfig(), now)
	if s := Stability(g, classifier.DefaultConfig(), now); s != 0.5 {
		t.Errorf("empty stability = %v", s)
	}
	for i := 0; i < 6; i++ {
		g.Behaviour.SignalHistory = append(g.Behaviour.SignalHistory, event(signal.SourceQuiz, daysAgo(1)), event(signal.SourceQuiz, daysAgo(45)))
	}
	s := Stability(g, classifier.DefaultConfig(), now)
	if math.Abs(s-1) > 1e-9 {
		t.Errorf("same taste in both windows should be fully stable, got %v", s)
	}
	r := Inspect(g, DefaultConfig(), classifier.DefaultConfig(), now)
	if r.HistorySize != 12 || r.Stability != s {
		t.Errorf("report = %+v", r)
	}
}
