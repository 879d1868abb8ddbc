package contexts

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/signal"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func baseGenome() genome.Genome {
	return genome.Encode("u", nil, classifier.DefaultConfig(), now)
}

func TestGetOrCreate(t *testing.T) {
	g := baseGenome()
	c := GetOrCreate(g, classifier.ContextCreating, now)
	if c.ID == "" || c.Label != classifier.ContextCreating || len(c.Shift) != 0 {
		t.Errorf("new context = %+v", c)
	}
	if len(g.Behaviour.Contexts) != 0 {
		t.Error("GetOrCreate stored the context")
	}
}

func TestUpdateStoresLargeShifts(t *testing.T) {
	g := baseGenome()
	sigs := []signal.Signal{
		signal.NewExplicit(signal.SourceRefyn, signal.KindChoice, map[archetype.ID]float64{archetype.Limn: 3}, now),
		signal.NewExplicit(signal.SourceRefyn, signal.KindChoice, map[archetype.ID]float64{archetype.Limn: 3}, now),
	}
	out, err := Update(g, classifier.ContextCreating, sigs, classifier.DefaultTuning(), now)
	if err != nil {
		t.Fatal(err)
	}
	if out.Version != g.Version+1 {
		t.Errorf("version = %d", out.Version)
	}
	ctx := out.Behaviour.Contexts[classifier.ContextCreating]
	if ctx.Shift[archetype.Limn] <= ShiftThreshold {
		t.Fatalf("expected a positive Limn shift, got %v", ctx.Shift)
	}
	for id, v := range ctx.Shift {
		if math.Abs(v) <= ShiftThreshold {
			t.Errorf("%s shift %v below threshold was stored", id, v)
		}
	}

	d := Distribution(out, classifier.ContextCreating)
	if math.Abs(d.Sum()-1) > 1e-9 {
		t.Errorf("contextual distribution sums to %v", d.Sum())
	}
	if p := Primary(out, classifier.ContextCreating); p.ID != archetype.Limn {
		t.Errorf("contextual primary = %s, want %s", p.ID, archetype.Limn)
	}
}

func TestUpdateEmptySignalsStoresNoShift(t *testing.T) {
	out, err := Update(baseGenome(), "late-night", nil, classifier.DefaultTuning(), now)
	if err != nil {
		t.Fatal(err)
	}
	if s := out.Behaviour.Contexts["late-night"].Shift; len(s) != 0 {
		t.Errorf("shift = %v, want empty", s)
	}
}

func TestUpdateRejectsBadLabel(t *testing.T) {
	for _, label := range []string{"", "   ", strings.Repeat("x", 65)} {
		if _, err := Update(baseGenome(), label, nil, classifier.DefaultTuning(), now); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("label %q: err = %v", label, err)
		}
	}
}

func TestDistributionWithoutContextIsBase(t *testing.T) {
	g := baseGenome()
	d := Distribution(g, "missing")
	for id, p := range g.Archetype.Distribution {
		if d[id] != p {
			t.Fatalf("%s = %v, want %v", id, d[id], p)
		}
	}
}

func TestDetect(t *testing.T) {
	creating := Detect([]signal.Signal{
		signal.NewExplicit(signal.SourceRefyn, signal.KindChoice, nil, now),
	})
	// Creating 2, Curating 1, total 1+3.
	if creating.Label != classifier.ContextCreating || math.Abs(creating.Confidence-0.5) > 1e-12 {
		t.Errorf("refyn detection = %+v", creating)
	}

	consuming := Detect([]signal.Signal{
		signal.NewImplicit(signal.UnintentionalImplicit, signal.SourceFeed, signal.KindDwell, "a", now),
		signal.NewImplicit(signal.UnintentionalImplicit, signal.SourceFeed, signal.KindRepeat, "b", now),
	})
	if consuming.Label != classifier.ContextConsuming || math.Abs(consuming.Confidence-0.8) > 1e-12 {
		t.Errorf("feed detection = %+v", consuming)
	}

	empty := Detect(nil)
	if empty.Label != classifier.ContextCreating || empty.Confidence != 0 {
		t.Errorf("empty detection = %+v", empty)
	}
}

func TestActive(t *testing.T) {
	g := baseGenome()
	g.Behaviour.Contexts = map[string]genome.ContextProfile{
		"old":    {Label: "old", LastActive: now.Add(-40 * 24 * time.Hour)},
		"recent": {Label: "recent", LastActive: now.Add(-time.Hour)},
		"mid":    {Label: "mid", LastActive: now.Add(-10 * 24 * time.Hour)},
	}
	got := Active(g, now)
	if len(got) != 2 || got[0].Label != "recent" || got[1].Label != "mid" {
		t.Errorf("active = %+v", got)
	}
}
