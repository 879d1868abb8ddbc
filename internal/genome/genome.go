// Package genome defines the durable taste profile and its public
// projection.
//
// Genome is the trusted record and carries the hidden engine layer. Anything
// leaving the server goes through ToPublic, which returns a separate type
// with no engine fields at all.
package genome

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/keywords"
	"github.com/starford/subtaste/internal/psychometric"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
)

// MaxHistory caps the stored signal history.
const MaxHistory = 1000

// Domain is a cross-modal taste domain.
type Domain string

const (
	DomainMusic   Domain = "music"
	DomainVisual  Domain = "visual"
	DomainTextual Domain = "textual"
	DomainSpatial Domain = "spatial"
)

var Domains = [...]Domain{DomainMusic, DomainVisual, DomainTextual, DomainSpatial}

// Formal holds the withheld formal names.
type Formal struct {
	PrimarySigil   string     `json:"primarySigil"`
	SecondarySigil *string    `json:"secondarySigil"`
	Revealed       bool       `json:"revealed"`
	RevealedAt     *time.Time `json:"revealedAt"`
}

// Engine is the hidden layer. It never leaves the server.
type Engine struct {
	Profile         psychometric.Profile           `json:"psychometrics"`
	PositionBalance map[archetype.Position]float64 `json:"positionBalance"`
	Resonance       archetype.ResonancePair        `json:"resonance"`
}

// ContextProfile is a situational shift applied to the base distribution.
type ContextProfile struct {
	ID         string                   `json:"id"`
	Label      string                   `json:"label"`
	Shift      map[archetype.ID]float64 `json:"archetypeShift"`
	LastActive time.Time                `json:"lastActive"`
}

// CompletedStage records a finished profiling stage.
type CompletedStage struct {
	Stage       string    `json:"stage"`
	CompletedAt time.Time `json:"completedAt"`
}

// Behaviour is the evolving layer.
type Behaviour struct {
	Contexts        map[string]ContextProfile `json:"contexts"`
	SignalHistory   []signal.Event            `json:"signalHistory"`
	Confidence      float64                   `json:"confidence"`
	LastCalibration time.Time                 `json:"lastCalibration"`
	Stages          []CompletedStage          `json:"completedStages,omitempty"`
	Keywords        *keywords.Scores          `json:"keywords,omitempty"`
}

type CrossModal struct {
	Typicality      float64            `json:"tasteTypicality"`
	DomainStrengths map[Domain]float64 `json:"domainStrengths"`
}

// Genome is the trusted, versioned profile of one owner.
type Genome struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Archetype  classifier.Classification `json:"archetype"`
	Formal     Formal                    `json:"formal"`
	Engine     Engine                    `json:"engine"`
	Behaviour  Behaviour                 `json:"behaviour"`
	CrossModal CrossModal                `json:"crossModal"`

	Axes    *reading.Axes    `json:"axes,omitempty"`
	Reading *reading.Reading `json:"reading,omitempty"`
}

// New wraps a classification result into a fresh version 1 genome.
func New(ownerID string, res classifier.Result, now time.Time) Genome {
	g := Genome{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Behaviour: Behaviour{
			Contexts:        map[string]ContextProfile{},
			SignalHistory:   []signal.Event{},
			LastCalibration: now,
		},
		CrossModal: CrossModal{
			Typicality:      0.5,
			DomainStrengths: make(map[Domain]float64, len(Domains)),
		},
	}
	for _, d := range Domains {
		g.CrossModal.DomainStrengths[d] = 0.5
	}
	g.ApplyResult(res)
	return g
}

// ApplyResult installs a classification result into the public, formal and engine
// layers. Reveal state is preserved.
func (g *Genome) ApplyResult(res classifier.Result) {
	cls := res.Classification
	cls.Distribution = cls.Distribution.Clone()
	if cls.Secondary != nil {
		sec := *cls.Secondary
		cls.Secondary = &sec
	}
	g.Archetype = cls

	g.Formal.PrimarySigil = archetype.Sigil(cls.Primary.ID)
	g.Formal.SecondarySigil = nil
	if cls.Secondary != nil {
		s := archetype.Sigil(cls.Secondary.ID)
		g.Formal.SecondarySigil = &s
	}

	g.Engine = Engine{
		Profile:         res.Profile,
		PositionBalance: res.PositionBalance,
		Resonance:       res.Resonance,
	}
	g.Behaviour.Confidence = cls.Primary.Confidence
}

// Touch records a mutation: version+1 and UpdatedAt refreshed.
func (g *Genome) Touch(now time.Time) {
	g.Version++
	g.UpdatedAt = now
}

// Clone returns a deep copy so snapshots never share maps or slices.
func (g Genome) Clone() Genome {
	out := g
	out.Archetype.Distribution = g.Archetype.Distribution.Clone()
	if g.Archetype.Secondary != nil {
		sec := *g.Archetype.Secondary
		out.Archetype.Secondary = &sec
	}
	if g.Formal.SecondarySigil != nil {
		s := *g.Formal.SecondarySigil
		out.Formal.SecondarySigil = &s
	}
	if g.Formal.RevealedAt != nil {
		t := *g.Formal.RevealedAt
		out.Formal.RevealedAt = &t
	}
	out.Engine.PositionBalance = make(map[archetype.Position]float64, len(g.Engine.PositionBalance))
	for k, v := range g.Engine.PositionBalance {
		out.Engine.PositionBalance[k] = v
	}
	out.Behaviour.Contexts = make(map[string]ContextProfile, len(g.Behaviour.Contexts))
	for k, c := range g.Behaviour.Contexts {
		shift := make(map[archetype.ID]float64, len(c.Shift))
		for id, v := range c.Shift {
			shift[id] = v
		}
		c.Shift = shift
		out.Behaviour.Contexts[k] = c
	}
	out.Behaviour.SignalHistory = append([]signal.Event(nil), g.Behaviour.SignalHistory...)
	out.Behaviour.Stages = append([]CompletedStage(nil), g.Behaviour.Stages...)
	if g.Behaviour.Keywords != nil {
		k := g.Behaviour.Keywords.Clone()
		out.Behaviour.Keywords = &k
	}
	out.CrossModal.DomainStrengths = make(map[Domain]float64, len(g.CrossModal.DomainStrengths))
	for k, v := range g.CrossModal.DomainStrengths {
		out.CrossModal.DomainStrengths[k] = v
	}
	if g.Axes != nil {
		a := *g.Axes
		out.Axes = &a
	}
	if g.Reading != nil {
		r := *g.Reading
		r.MovingLines = append([]int(nil), g.Reading.MovingLines...)
		if g.Reading.Transformed != nil {
			h := *g.Reading.Transformed
			r.Transformed = &h
		}
		out.Reading = &r
	}
	return out
}

var unitInterval = validation.By(func(v any) error {
	f, _ := v.(float64)
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("must be within [0,1]")
	}
	return nil
})

// Validate checks structural invariants.
func (g Genome) Validate() error {
	err := validation.ValidateStruct(&g,
		validation.Field(&g.ID, validation.Required),
		validation.Field(&g.OwnerID, validation.Required, validation.Length(1, 256)),
		validation.Field(&g.Version, validation.Required, validation.Min(1)),
		validation.Field(&g.CreatedAt, validation.Required),
		validation.Field(&g.UpdatedAt, validation.Required),
	)
	if err == nil {
		err = g.Archetype.Validate()
	}
	if err == nil {
		err = validation.Validate(g.Behaviour.Confidence, unitInterval)
	}
	if err == nil && len(g.Behaviour.SignalHistory) > MaxHistory {
		err = fmt.Errorf("signal history holds %d events, cap is %d", len(g.Behaviour.SignalHistory), MaxHistory)
	}
	if err != nil {
		return fmt.Errorf("%w: genome: %v", apperr.ErrValidation, err)
	}
	return nil
}

// Serialize encodes g as JSON with RFC 3339 timestamps.
func Serialize(g Genome) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("genome: serialize: %w", err)
	}
	return data, nil
}

// Deserialize decodes and validates a genome produced by Serialize.
func Deserialize(data []byte) (Genome, error) {
	var g Genome
	if err := json.Unmarshal(data, &g); err != nil {
		return Genome{}, fmt.Errorf("%w: genome: deserialize: %v", apperr.ErrValidation, err)
	}
	if g.Behaviour.Contexts == nil {
		g.Behaviour.Contexts = map[string]ContextProfile{}
	}
	if err := g.Validate(); err != nil {
		return Genome{}, err
	}
	return g, nil
}

// Reveal marks the formal names as revealed. It is a mutation and bumps the
// version; revealing twice keeps the first timestamp.
func Reveal(g Genome, now time.Time) Genome {
	out := g.Clone()
	if !out.Formal.Revealed {
		out.Formal.Revealed = true
		out.Formal.RevealedAt = &now
	}
	out.Touch(now)
	return out
}

// WithReading derives a symbolic reading from axes and stores both.
func WithReading(g Genome, axes reading.Axes, now time.Time) (Genome, error) {
	axes = reading.NormalizeAxes(axes)
	r, err := reading.Derive(axes)
	if err != nil {
		return Genome{}, err
	}
	out := g.Clone()
	out.Axes = &axes
	out.Reading = &r
	out.Touch(now)
	return out, nil
}

// CompleteStage records stage as finished. Completing a stage twice keeps
// the first record. It does not bump the version; callers pair it with a
// reclassification.
func CompleteStage(g Genome, stage string, now time.Time) Genome {
	out := g.Clone()
	for _, s := range out.Behaviour.Stages {
		if s.Stage == stage {
			return out
		}
	}
	out.Behaviour.Stages = append(out.Behaviour.Stages, CompletedStage{Stage: stage, CompletedAt: now})
	return out
}

// HasStage reports whether stage has been completed.
func (g Genome) HasStage(stage string) bool {
	for _, s := range g.Behaviour.Stages {
		if s.Stage == stage {
			return true
		}
	}
	return false
}

// LearnKeywords folds the keywords found in text into the genome.
func LearnKeywords(g Genome, text string, weight float64, polarity keywords.Polarity, now time.Time) Genome {
	out := g.Clone()
	current := keywords.NewScores()
	if out.Behaviour.Keywords != nil {
		current = *out.Behaviour.Keywords
	}
	learned := keywords.Learn(current, text, weight, polarity)
	out.Behaviour.Keywords = &learned
	out.Touch(now)
	return out
}

// PublicFormal omits formal names until reveal.
type PublicFormal struct {
	PrimarySigil   *string `json:"primarySigil"`
	SecondarySigil *string `json:"secondarySigil"`
	Revealed       bool    `json:"revealed"`
}

// PublicGenome is the only genome shape that may leave the server.
type PublicGenome struct {
	ID         string                    `json:"id"`
	OwnerID    string                    `json:"userId"`
	Version    int                       `json:"version"`
	CreatedAt  time.Time                 `json:"createdAt"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
	Archetype  classifier.Classification `json:"archetype"`
	Formal     PublicFormal              `json:"formal"`
	Confidence float64                   `json:"confidence"`
	Typicality float64                   `json:"tasteTypicality"`
	Reading    *reading.Reading          `json:"reading,omitempty"`
}

// ToPublic projects g for untrusted consumers.
func ToPublic(g Genome) PublicGenome {
	c := g.Clone()
	p := PublicGenome{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Archetype:  c.Archetype,
		Formal:     PublicFormal{Revealed: c.Formal.Revealed},
		Confidence: c.Behaviour.Confidence,
		Typicality: c.CrossModal.Typicality,
		Reading:    c.Reading,
	}
	if c.Formal.Revealed {
		primary := c.Formal.PrimarySigil
		p.Formal.PrimarySigil = &primary
		p.Formal.SecondarySigil = c.Formal.SecondarySigil
	}
	return p
}
