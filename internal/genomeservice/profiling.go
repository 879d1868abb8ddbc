package genomeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/keywords"
	"github.com/starford/subtaste/internal/profiler"
	"github.com/starford/subtaste/internal/signal"
)

// EventStageCompleted is published when a profiling stage is submitted.
const EventStageCompleted = "stage_completed"

const (
	maxKeywordText   = 10000
	maxKeywordWeight = 10
)

// ProfilingStatus reports where ownerID stands in the profiling journey.
// An owner without a genome is at the start.
func (s *Service) ProfilingStatus(ctx context.Context, ownerID string) (profiler.Status, error) {
	if err := validateOwner(ownerID); err != nil {
		return profiler.Status{}, err
	}
	var st profiler.State
	g, err := s.store.Get(ctx, ownerID)
	switch {
	case err == nil:
		st = profiler.InferState(g)
	case !errors.Is(err, apperr.ErrNotFound):
		return profiler.Status{}, err
	}
	return profiler.StatusOf(st, s.now()), nil
}

// SubmitStage scores a completed questionnaire and folds it into ownerID's
// genome. The first stage creates the genome; later stages must be
// available for the stored genome.
func (s *Service) SubmitStage(ctx context.Context, ownerID string, id profiler.StageID, responses []profiler.Response, expectedVersion int) (c Change, err error) {
	defer s.observe("submit_stage", time.Now(), &err)
	if err := validateOwner(ownerID); err != nil {
		return Change{}, err
	}
	stage, ok := profiler.GetStage(id)
	if !ok {
		return Change{}, fmt.Errorf("%w: unknown stage %q", apperr.ErrValidation, id)
	}
	signals, err := profiler.Assess(id, responses, s.now())
	if err != nil {
		return Change{}, err
	}

	_, err = s.store.Get(ctx, ownerID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c, err = s.createFromStage(ctx, ownerID, stage, signals)
	case err != nil:
		return Change{}, err
	default:
		c, err = s.reclassify(ctx, ownerID, expectedVersion, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
			if !profiler.Available(stage, profiler.InferState(cur), now) {
				return genome.Genome{}, fmt.Errorf("%w: stage %s is not available", apperr.ErrValidation, id)
			}
			next := genome.Update(cur, signals, s.tuning.Base, now)
			return genome.CompleteStage(next, string(id), now), nil
		})
	}
	if err != nil {
		return Change{}, err
	}

	s.publisher.PublishGenomeEvent(EventStageCompleted, ownerID, c.Genome.Version)
	s.logger.Info("profiling stage completed",
		slog.String("owner", ownerID),
		slog.String("stage", string(id)),
		slog.String("primary", string(c.Genome.Archetype.Primary.ID)),
	)
	return c, nil
}

func (s *Service) createFromStage(ctx context.Context, ownerID string, stage profiler.Stage, signals []signal.Signal) (Change, error) {
	if !profiler.Available(stage, profiler.State{}, s.now()) {
		return Change{}, fmt.Errorf("%w: stage %s needs an existing genome", apperr.ErrValidation, stage.ID)
	}
	now := s.now()
	g := genome.Encode(ownerID, signals, s.tuning.Base, now)
	g = genome.CompleteStage(g, string(stage.ID), now)
	if err := s.store.Create(ctx, g); err != nil {
		return Change{}, err
	}
	s.metrics.Classified(g.Archetype.Primary.ID)
	return Change{Genome: g, Created: true}, nil
}

// SubmitTraining folds best/worst training picks into ownerID's genome.
func (s *Service) SubmitTraining(ctx context.Context, ownerID string, picks []profiler.TrainingPick, expectedVersion int) (c Change, err error) {
	defer s.observe("submit_training", time.Now(), &err)
	signals, err := profiler.TrainingSignals(picks, s.now())
	if err != nil {
		return Change{}, err
	}
	c, err = s.reclassify(ctx, ownerID, expectedVersion, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
		return genome.Update(cur, signals, s.tuning.Base, now), nil
	})
	if err != nil {
		return Change{}, err
	}
	s.publisher.PublishGenomeEvent(EventUpdated, ownerID, c.Genome.Version)
	return c, nil
}

// LearnKeywords folds the descriptive keywords of text into ownerID's
// genome. A zero weight counts as 1 and an empty polarity as positive.
func (s *Service) LearnKeywords(ctx context.Context, ownerID, text string, weight float64, polarity keywords.Polarity, expectedVersion int) (g genome.Genome, err error) {
	defer s.observe("learn_keywords", time.Now(), &err)
	if weight == 0 {
		weight = 1
	}
	if polarity == "" {
		polarity = keywords.Positive
	}
	switch {
	case text == "":
		return genome.Genome{}, fmt.Errorf("%w: text is required", apperr.ErrValidation)
	case utf8.RuneCountInString(text) > maxKeywordText:
		return genome.Genome{}, fmt.Errorf("%w: text exceeds %d characters", apperr.ErrValidation, maxKeywordText)
	case !(weight > 0) || weight > maxKeywordWeight:
		return genome.Genome{}, fmt.Errorf("%w: weight must be in (0, %d]", apperr.ErrValidation, maxKeywordWeight)
	case !polarity.Valid():
		return genome.Genome{}, fmt.Errorf("%w: polarity %q", apperr.ErrValidation, polarity)
	}

	g, err = s.mutate(ctx, ownerID, expectedVersion, func(cur genome.Genome, now time.Time) (genome.Genome, error) {
		return genome.LearnKeywords(cur, text, weight, polarity, now), nil
	})
	if err != nil {
		return genome.Genome{}, err
	}
	s.publisher.PublishGenomeEvent(EventUpdated, ownerID, g.Version)
	return g, nil
}

// Keywords summarises the keyword affinities learned for ownerID.
func (s *Service) Keywords(ctx context.Context, ownerID string, limit int) (keywords.Profile, error) {
	g, err := s.Get(ctx, ownerID)
	if err != nil {
		return keywords.Profile{}, err
	}
	scores := keywords.NewScores()
	if g.Behaviour.Keywords != nil {
		scores = *g.Behaviour.Keywords
	}
	return keywords.ProfileOf(scores, limit), nil
}
