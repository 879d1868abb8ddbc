package genomeservice

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/evolution"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/metrics"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
)

var t0 = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

type recordedEvent struct {
	kind    string
	owner   string
	version int
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	drifts []float64
}

func (p *fakePublisher) PublishGenomeEvent(kind, ownerID string, version int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind, ownerID, version})
}

func (p *fakePublisher) PublishDrift(_ string, drift float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drifts = append(p.drifts, drift)
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.kind
	}
	return out
}

type testEnv struct {
	svc   *Service
	store *genomestore.Memory
	pub   *fakePublisher
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	rec, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{store: genomestore.NewMemory(), pub: &fakePublisher{}}
	base := []Option{
		WithClock(func() time.Time { return t0 }),
		WithPublisher(env.pub),
		WithMetrics(rec),
	}
	env.svc = New(env.store, append(base, opts...)...)
	return env
}

func choices(id archetype.ID, n int) []signal.Signal {
	out := make([]signal.Signal, n)
	for i := range out {
		out[i] = signal.NewExplicit(signal.SourceQuiz, signal.KindChoice, map[archetype.ID]float64{id: 2}, t0)
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Version != 1 || g.OwnerID != "alice" {
		t.Errorf("genome = %+v", g)
	}

	pub, err := env.svc.GetPublic(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if pub.Formal.PrimarySigil != nil {
		t.Error("sigil exposed before reveal")
	}

	if _, err := env.svc.Create(ctx, "alice", nil); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}
	if got := env.pub.kinds(); len(got) != 1 || got[0] != EventCreated {
		t.Errorf("events = %v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty owner err = %v", err)
	}
	bad := signal.NewExplicit(signal.SourceQuiz, signal.KindChoice, map[archetype.ID]float64{"Z-99": 1}, t0)
	if _, err := env.svc.Create(ctx, "bob", []signal.Signal{bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad signal err = %v", err)
	}
	if _, err := env.svc.Get(ctx, "bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("invalid create persisted a genome: %v", err)
	}
}

func TestUpdateVersionCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 2)); err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Update(ctx, "alice", choices(archetype.Omen, 1), 7); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale version err = %v, want ErrConflict", err)
	}
	c, err := env.svc.Update(ctx, "alice", choices(archetype.Omen, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Genome.Version != 2 {
		t.Errorf("version = %d, want 2", c.Genome.Version)
	}
	c, err = env.svc.Update(ctx, "alice", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Genome.Version != 3 {
		t.Errorf("version = %d, want 3", c.Genome.Version)
	}

	if _, err := env.svc.Update(ctx, "ghost", nil, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing owner err = %v", err)
	}
}

func TestEvolvePublishesDrift(t *testing.T) {
	evo := evolution.DefaultConfig()
	evo.DriftThreshold = 1e-9
	env := newTestEnv(t, WithEvolution(evo))
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 2)); err != nil {
		t.Fatal(err)
	}
	c, err := env.svc.Evolve(ctx, "alice", choices(archetype.Void, 10), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Drifted || c.Drift <= 0 {
		t.Fatalf("change = %+v, expected drift", c)
	}
	if len(env.pub.drifts) != 1 {
		t.Errorf("drift events = %d, want 1", len(env.pub.drifts))
	}
	if got := len(c.Genome.Behaviour.SignalHistory); got != 12 {
		t.Errorf("history = %d, want 12", got)
	}
	kinds := env.pub.kinds()
	if kinds[len(kinds)-1] != EventEvolved {
		t.Errorf("last event = %s", kinds[len(kinds)-1])
	}
}

func TestEvolveBelowThresholdIsQuiet(t *testing.T) {
	evo := evolution.DefaultConfig()
	evo.DriftThreshold = 1
	env := newTestEnv(t, WithEvolution(evo))
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 2)); err != nil {
		t.Fatal(err)
	}
	c, err := env.svc.Evolve(ctx, "alice", choices(archetype.Cull, 1), 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Drifted || len(env.pub.drifts) != 0 {
		t.Errorf("unexpected drift: %+v", c)
	}
}

func TestIngestCreatesThenEvolves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := signal.Batch{UserID: "dana", Source: signal.SourceFeed, Signals: choices(archetype.Limn, 2)}

	c, err := env.svc.Ingest(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Created || c.Genome.Version != 1 {
		t.Errorf("first ingest = %+v", c)
	}
	c, err = env.svc.Ingest(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if c.Created || c.Genome.Version != 2 {
		t.Errorf("second ingest created=%v version=%d", c.Created, c.Genome.Version)
	}

	if _, err := env.svc.Ingest(ctx, signal.Batch{UserID: "dana"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty batch err = %v", err)
	}
}

func TestReveal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g, err := env.svc.Create(ctx, "alice", choices(archetype.Keth, 3))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Reveal(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	pub, err := env.svc.GetPublic(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if pub.Formal.PrimarySigil == nil || *pub.Formal.PrimarySigil != archetype.Sigil(g.Archetype.Primary.ID) {
		t.Errorf("formal = %+v", pub.Formal)
	}
	if pub.Version != 2 {
		t.Errorf("version = %d", pub.Version)
	}
}

func TestContexts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 2)); err != nil {
		t.Fatal(err)
	}

	refyn := []signal.Signal{
		signal.NewExplicit(signal.SourceRefyn, signal.KindChoice, map[archetype.ID]float64{archetype.Limn: 3}, t0),
	}
	if _, err := env.svc.UpdateContext(ctx, "alice", "", refyn, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty label err = %v", err)
	}
	g, err := env.svc.UpdateContext(ctx, "alice", classifier.ContextCreating, refyn, 1)
	if err != nil {
		t.Fatal(err)
	}
	if g.Version != 2 {
		t.Errorf("version = %d", g.Version)
	}

	view, err := env.svc.ContextView(ctx, "alice", classifier.ContextCreating)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(view.Distribution.Sum()-1) > 1e-9 {
		t.Errorf("distribution sums to %v", view.Distribution.Sum())
	}
	if view.LastActive == nil || !view.LastActive.Equal(t0) {
		t.Errorf("lastActive = %v", view.LastActive)
	}

	active, err := env.svc.ActiveContexts(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Label != classifier.ContextCreating {
		t.Errorf("active = %+v", active)
	}

	det, err := env.svc.DetectContext(ctx, refyn)
	if err != nil {
		t.Fatal(err)
	}
	if det.Label != classifier.ContextCreating {
		t.Errorf("detected %s", det.Label)
	}
}

func TestSubmitAxes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 2)); err != nil {
		t.Fatal(err)
	}

	hi, lo := 0.9, 0.1
	g, err := env.svc.SubmitAxes(ctx, "alice", reading.AxesInput{
		OrderChaos: &hi, MercyRuthlessness: &lo, IntrovertExtrovert: &hi, FaithDoubt: &lo,
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.Reading == nil || g.Axes == nil {
		t.Fatal("reading not stored")
	}
	if len(g.Reading.MovingLines) != 2 {
		t.Errorf("moving lines = %v", g.Reading.MovingLines)
	}

	nan := math.NaN()
	if _, err := env.svc.SubmitAxes(ctx, "alice", reading.AxesInput{FaithDoubt: &nan}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("NaN axis err = %v", err)
	}
}

func TestRecalibrationAndCompare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Cull, 4)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Create(ctx, "bob", choices(archetype.Cull, 4)); err != nil {
		t.Fatal(err)
	}

	rep, err := env.svc.Recalibration(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if rep.HistorySize != 4 || rep.NeedsRecalibration {
		t.Errorf("report = %+v", rep)
	}

	sim, err := env.svc.Compare(ctx, "alice", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("similarity of identical genomes = %v", sim)
	}
}

func TestDeleteAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, owner := range []string{"a", "b"} {
		if _, err := env.svc.Create(ctx, owner, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := env.svc.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := env.svc.Delete(ctx, "a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	items, total, err := env.svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].OwnerID != "b" {
		t.Errorf("list = %+v total=%d", items, total)
	}
}

func TestClassifyDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Classify(context.Background(), choices(archetype.Omen, 3), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Classification.Primary.ID == "" {
		t.Error("no primary")
	}
	if _, total, _ := env.svc.List(context.Background(), 10, 0); total != 0 {
		t.Errorf("classify stored %d genomes", total)
	}
}

func TestCallerTemporalWeightsIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signals := choices(archetype.Keth, 3)
	for i := range signals {
		signals[i] = signals[i].WithTemporalWeight(0.01)
	}
	signals = append(signals, choices(archetype.Strata, 1)...)

	res, err := env.svc.Classify(ctx, signals, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Classification.Primary.ID; got != archetype.Keth {
		t.Errorf("primary = %s, want %s", got, archetype.Keth)
	}

	g, err := env.svc.Create(ctx, "alice", signals)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range g.Behaviour.SignalHistory {
		if e.Signal.TemporalWeight != nil {
			t.Errorf("history entry %d kept caller weight", i)
		}
	}

	boosted := append(choices(archetype.Keth, 3), choices(archetype.Strata, 1)[0].WithTemporalWeight(1000))
	if _, err := env.svc.Classify(ctx, boosted, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("oversized weight err = %v, want ErrValidation", err)
	}
}
