package genomeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/contexts"
	"github.com/starford/subtaste/internal/evolution"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/metrics"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
)

// Event kinds passed to Publisher.PublishGenomeEvent.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventEvolved  = "evolved"
	EventRevealed = "revealed"
	EventDeleted  = "deleted"
)

// Publisher receives genome change notifications.
type Publisher interface {
	PublishGenomeEvent(kind, ownerID string, version int)
	PublishDrift(ownerID string, drift float64)
}

type nopPublisher struct{}

func (nopPublisher) PublishGenomeEvent(string, string, int) {}
func (nopPublisher) PublishDrift(string, float64)           {}

// Change is the outcome of a write that reclassifies a genome.
type Change struct {
	Genome  genome.Genome
	Created bool
	Drift   float64
	Drifted bool
}

// ContextView is a genome seen through one context.
type ContextView struct {
	Label        string                  `json:"label"`
	Primary      classifier.Weighted     `json:"primary"`
	Distribution classifier.Distribution `json:"distribution"`
	LastActive   *time.Time              `json:"lastActive,omitempty"`
}

// Service coordinates the genome store with classification, evolution and
// context scoring.
type Service struct {
	store     genomestore.Store
	tuning    classifier.Tuning
	evolution evolution.Config
	logger    *slog.Logger
	metrics   *metrics.Recorder
	publisher Publisher
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithTuning(t classifier.Tuning) Option {
	return func(s *Service) { s.tuning = t }
}

func WithEvolution(c evolution.Config) Option {
	return func(s *Service) { s.evolution = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a genome service backed by store.
func New(store genomestore.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		tuning:    classifier.DefaultTuning(),
		evolution: evolution.DefaultConfig(),
		logger:    slog.Default(),
		publisher: nopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateOwner(ownerID string) error {
	if err := validation.Validate(ownerID, validation.Required, validation.Length(1, 256)); err != nil {
		return fmt.Errorf("%w: owner: %v", apperr.ErrValidation, err)
	}
	return nil
}

// acceptSignals validates caller-supplied signals and drops any temporal
// annotation; decay weights are assigned during evolution only.
func acceptSignals(signals []signal.Signal) ([]signal.Signal, error) {
	if err := signal.ValidateAll(signals); err != nil {
		return nil, err
	}
	return signal.Unweighted(signals), nil
}

// Classify scores signals without touching the store. An empty label uses
// the base configuration.
func (s *Service) Classify(_ context.Context, signals []signal.Signal, label string) (res classifier.Result, err error) {
	defer s.observe("classify", time.Now(), &err)
	if signals, err = acceptSignals(signals); err != nil {
		return classifier.Result{}, err
	}
	cfg := s.tuning.Base
	if label != "" {
		if err := contexts.ValidateLabel(label); err != nil {
			return classifier.Result{}, err
		}
		cfg = s.tuning.ForContext(label)
	}
	return classifier.Classify(signals, nil, cfg), nil
}

// Create encodes a first genome for ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, signals []signal.Signal) (g genome.Genome, err error) {
	defer s.observe("create", time.Now(), &err)
	if err := validateOwner(ownerID); err != nil {
		return genome.Genome{}, err
	}
	if signals, err = acceptSignals(signals); err != nil {
		return genome.Genome{}, err
	}

	g = genome.Encode(ownerID, signals, s.tuning.Base, s.now())
	if err := s.store.Create(ctx, g); err != nil {
		return genome.Genome{}, err
	}
	s.metrics.Classified(g.Archetype.Primary.ID)
	s.publisher.PublishGenomeEvent(EventCreated, ownerID, g.Version)
	s.logger.Info("genome created",
		slog.String("owner", ownerID),
		slog.String("primary", string(g.Archetype.Primary.ID)),
		slog.Int("signals", len(signals)),
	)
	return g, nil
}

// Get returns the trusted genome. It must not be handed to untrusted callers.
func (s *Service) Get(ctx context.Context, ownerID string) (genome.Genome, error) {
	if err := validateOwner(ownerID); err != nil {
		return genome.Genome{}, err
	}
	return s.store.Get(ctx, ownerID)
}

// GetPublic returns the public projection.
func (s *Service) GetPublic(ctx context.Context, ownerID string) (genome.PublicGenome, error) {
	g, err := s.Get(ctx, ownerID)
	if err != nil {
		return genome.PublicGenome{}, err
	}
	return genome.ToPublic(g), nil
}

// Update reclassifies with newSignals on top of the stored profile.
// expectedVersion 0 accepts whatever version is read.
func (s *Service) Update(ctx context.Context, ownerID string, signals []signal.Signal, expectedVersion int) (c Change, err error) {
	defer s.observe("update", time.Now(), &err)
	if signals, err = acceptSignals(signals); err != nil {
		return Change{}, err
	}
	c, err = s.reclassify(ctx, ownerID, expectedVersion, func(g genome.Genome, now time.Time) (genome.Genome, error) {
		return genome.Update(g, signals, s.tuning.Base, now), nil
	})
	if err != nil {
		return Change{}, err
	}
	s.publisher.PublishGenomeEvent(EventUpdated, ownerID, c.Genome.Version)
	return c, nil
}

// Evolve runs a full evolution cycle with newSignals.
func (s *Service) Evolve(ctx context.Context, ownerID string, signals []signal.Signal, expectedVersion int) (c Change, err error) {
	defer s.observe("evolve", time.Now(), &err)
	if signals, err = acceptSignals(signals); err != nil {
		return Change{}, err
	}
	c, err = s.reclassify(ctx, ownerID, expectedVersion, func(g genome.Genome, now time.Time) (genome.Genome, error) {
		return evolution.Evolve(g, signals, s.evolution, s.tuning.Base, now), nil
	})
	if err != nil {
		return Change{}, err
	}
	s.publisher.PublishGenomeEvent(EventEvolved, ownerID, c.Genome.Version)
	return c, nil
}

// Ingest creates the genome for a batch's user or evolves the existing one.
func (s *Service) Ingest(ctx context.Context, b signal.Batch) (Change, error) {
	if err := b.Validate(); err != nil {
		return Change{}, err
	}
	_, err := s.store.Get(ctx, b.UserID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		g, err := s.Create(ctx, b.UserID, b.Signals)
		if err == nil {
			return Change{Genome: g, Created: true}, nil
		}
		if !errors.Is(err, apperr.ErrAlreadyExists) {
			return Change{}, err
		}
	case err != nil:
		return Change{}, err
	}
	return s.Evolve(ctx, b.UserID, b.Signals, 0)
}

// Reveal exposes the formal names on the public genome.
func (s *Service) Reveal(ctx context.Context, ownerID string) (g genome.Genome, err error) {
	defer s.observe("reveal", time.Now(), &err)
	g, err = s.mutate(ctx, ownerID, 0, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
		return genome.Reveal(cur, now), nil
	})
	if err != nil {
		return genome.Genome{}, err
	}
	s.publisher.PublishGenomeEvent(EventRevealed, ownerID, g.Version)
	return g, nil
}

// UpdateContext records how signals shift the genome under label.
func (s *Service) UpdateContext(ctx context.Context, ownerID, label string, signals []signal.Signal, expectedVersion int) (g genome.Genome, err error) {
	defer s.observe("update_context", time.Now(), &err)
	if signals, err = acceptSignals(signals); err != nil {
		return genome.Genome{}, err
	}
	g, err = s.mutate(ctx, ownerID, expectedVersion, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
		return contexts.Update(cur, label, signals, s.tuning, now)
	})
	if err != nil {
		return genome.Genome{}, err
	}
	s.publisher.PublishGenomeEvent(EventUpdated, ownerID, g.Version)
	return g, nil
}

// ContextView returns the distribution of ownerID's genome under label.
func (s *Service) ContextView(ctx context.Context, ownerID, label string) (ContextView, error) {
	if err := contexts.ValidateLabel(label); err != nil {
		return ContextView{}, err
	}
	g, err := s.Get(ctx, ownerID)
	if err != nil {
		return ContextView{}, err
	}
	return viewOf(g, label), nil
}

// ActiveContexts lists the contexts used recently, newest first.
func (s *Service) ActiveContexts(ctx context.Context, ownerID string) ([]ContextView, error) {
	g, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	active := contexts.Active(g, s.now())
	out := make([]ContextView, len(active))
	for i, c := range active {
		out[i] = viewOf(g, c.Label)
	}
	return out, nil
}

func viewOf(g genome.Genome, label string) ContextView {
	dist := contexts.Distribution(g, label)
	top, _ := dist.Top()
	v := ContextView{Label: label, Primary: top, Distribution: dist}
	if c, ok := g.Behaviour.Contexts[label]; ok {
		at := c.LastActive
		v.LastActive = &at
	}
	return v
}

// DetectContext guesses the context a set of signals came from.
func (s *Service) DetectContext(_ context.Context, signals []signal.Signal) (contexts.Detection, error) {
	if err := signal.ValidateAll(signals); err != nil {
		return contexts.Detection{}, err
	}
	return contexts.Detect(signals), nil
}

// DeriveReading derives a reading without storing it.
func (s *Service) DeriveReading(_ context.Context, in reading.AxesInput) (reading.Reading, error) {
	if err := in.Validate(); err != nil {
		return reading.Reading{}, err
	}
	return reading.Derive(in.Normalize())
}

// SubmitAxes derives a reading from in and stores both on the genome.
func (s *Service) SubmitAxes(ctx context.Context, ownerID string, in reading.AxesInput) (g genome.Genome, err error) {
	defer s.observe("submit_axes", time.Now(), &err)
	if err := in.Validate(); err != nil {
		return genome.Genome{}, err
	}
	g, err = s.mutate(ctx, ownerID, 0, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
		return genome.WithReading(cur, in.Normalize(), now)
	})
	if err != nil {
		return genome.Genome{}, err
	}
	s.publisher.PublishGenomeEvent(EventUpdated, ownerID, g.Version)
	return g, nil
}

// Recalibration reports the evolution state of ownerID's genome.
func (s *Service) Recalibration(ctx context.Context, ownerID string) (evolution.Report, error) {
	g, err := s.Get(ctx, ownerID)
	if err != nil {
		return evolution.Report{}, err
	}
	return evolution.Inspect(g, s.evolution, s.tuning.Base, s.now()), nil
}

// Compare returns the cosine similarity of two owners' distributions.
func (s *Service) Compare(ctx context.Context, ownerA, ownerB string) (float64, error) {
	a, err := s.Get(ctx, ownerA)
	if err != nil {
		return 0, err
	}
	b, err := s.Get(ctx, ownerB)
	if err != nil {
		return 0, err
	}
	return genome.Similarity(a, b), nil
}

// Delete removes ownerID's genome.
func (s *Service) Delete(ctx context.Context, ownerID string) (err error) {
	defer s.observe("delete", time.Now(), &err)
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ownerID); err != nil {
		return err
	}
	s.publisher.PublishGenomeEvent(EventDeleted, ownerID, 0)
	return nil
}

// List returns summaries, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]genomestore.Summary, int, error) {
	return s.store.List(ctx, limit, offset)
}

// mutate reads ownerID's genome, checks expectedVersion, applies fn and
// writes the result guarded by the version that was read.
func (s *Service) mutate(ctx context.Context, ownerID string, expectedVersion int, fn func(genome.Genome, time.Time) (genome.Genome, error)) (genome.Genome, error) {
	_, next, err := s.apply(ctx, ownerID, expectedVersion, fn)
	return next, err
}

func (s *Service) apply(ctx context.Context, ownerID string, expectedVersion int, fn func(genome.Genome, time.Time) (genome.Genome, error)) (cur, next genome.Genome, err error) {
	if err := validateOwner(ownerID); err != nil {
		return cur, next, err
	}
	cur, err = s.store.Get(ctx, ownerID)
	if err != nil {
		return cur, next, err
	}
	if expectedVersion != 0 && cur.Version != expectedVersion {
		s.metrics.Conflict()
		return cur, next, apperr.ErrConflict
	}
	next, err = fn(cur, s.now())
	if err != nil {
		return cur, next, err
	}
	if err := s.store.Update(ctx, next, cur.Version); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.metrics.Conflict()
		}
		return cur, next, err
	}
	return cur, next, nil
}

// reclassify is apply plus drift bookkeeping between the old and new
// distributions.
func (s *Service) reclassify(ctx context.Context, ownerID string, expectedVersion int, fn func(genome.Genome, time.Time) (genome.Genome, error)) (Change, error) {
	cur, next, err := s.apply(ctx, ownerID, expectedVersion, fn)
	if err != nil {
		return Change{}, err
	}
	c := Change{
		Genome: next,
		Drift:  evolution.Drift(next.Archetype.Distribution, cur.Archetype.Distribution),
	}
	c.Drifted = evolution.DetectDrift(next.Archetype.Distribution, cur.Archetype.Distribution, s.evolution.DriftThreshold)
	s.metrics.Classified(next.Archetype.Primary.ID)
	if c.Drifted {
		s.metrics.Drift()
		s.publisher.PublishDrift(ownerID, c.Drift)
		s.logger.Info("genome drift detected",
			slog.String("owner", ownerID),
			slog.Float64("drift", c.Drift),
			slog.String("from", string(cur.Archetype.Primary.ID)),
			slog.String("to", string(next.Archetype.Primary.ID)),
		)
	}
	return c, nil
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveOperation(op, start, *err)
}
