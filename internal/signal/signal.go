// Package signal defines the evidence records that feed the classifier.
//
// A Signal is a tagged union: its payload is either an Explicit record
// (quiz answers, ratings, rankings) or an Implicit record (dwell, skip,
// save and similar interactions). The JSON form carries the payload under
// "data" and the discriminant is data.kind.
package signal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
)

// Type classifies how deliberate a signal is.
type Type string

const (
	Explicit              Type = "explicit"
	IntentionalImplicit   Type = "intentional_implicit"
	UnintentionalImplicit Type = "unintentional_implicit"
)

// Source is the channel a signal originated from.
type Source string

const (
	SourceQuiz        Source = "quiz"
	SourceCalibration Source = "calibration"
	SourceTraining    Source = "training"
	SourceSwipe       Source = "swipe"
	SourceFeed        Source = "feed"
	SourceContent     Source = "content"
	SourceRefyn       Source = "refyn"
	SourceSelectr     Source = "selectr"
	SourceDropr       Source = "dropr"
	SourceCanora      Source = "canora"
	SourceExternal    Source = "external"
	SourceAPI         Source = "api"
	SourceMigration   Source = "migration"
)

// Sources lists every known source.
var Sources = []Source{
	SourceQuiz, SourceCalibration, SourceTraining, SourceSwipe, SourceFeed, SourceContent, SourceRefyn,
	SourceSelectr, SourceDropr, SourceCanora, SourceExternal, SourceAPI, SourceMigration,
}

// Kind is the payload discriminant.
type Kind string

// Explicit kinds.
const (
	KindRating     Kind = "rating"
	KindChoice     Kind = "choice"
	KindLikert     Kind = "likert"
	KindBlock      Kind = "block"
	KindRanking    Kind = "ranking"
	KindPreference Kind = "preference"
	KindComparison Kind = "comparison"
	KindSelection  Kind = "selection"
)

// Implicit kinds.
const (
	KindDwell  Kind = "dwell"
	KindSkip   Kind = "skip"
	KindRepeat Kind = "repeat"
	KindSave   Kind = "save"
	KindShare  Kind = "share"
	KindClick  Kind = "click"
)

var kindWeights = map[Kind]float64{
	KindRating:     1.0,
	KindChoice:     1.0,
	KindLikert:     0.8,
	KindBlock:      1.5,
	KindRanking:    1.2,
	KindPreference: 1.0,
	KindComparison: 0.9,
	KindSelection:  0.8,

	KindDwell:  0.3,
	KindSkip:   0.4,
	KindRepeat: 0.5,
	KindSave:   0.6,
	KindShare:  0.7,
	KindClick:  0.2,
}

// IsExplicit reports whether k is an explicit payload kind.
func (k Kind) IsExplicit() bool {
	switch k {
	case KindRating, KindChoice, KindLikert, KindBlock, KindRanking, KindPreference, KindComparison, KindSelection:
		return true
	}
	return false
}

// IsImplicit reports whether k is an implicit payload kind.
func (k Kind) IsImplicit() bool {
	switch k {
	case KindDwell, KindSkip, KindRepeat, KindSave, KindShare, KindClick:
		return true
	}
	return false
}

// KindWeight returns the relative strength of a payload kind. Unknown kinds
// weigh 1.
func KindWeight(k Kind) float64 {
	if w, ok := kindWeights[k]; ok {
		return w
	}
	return 1
}

// ExplicitPayload is a self-report record.
type ExplicitPayload struct {
	Kind             Kind                     `json:"kind"`
	QuestionID       string                   `json:"questionId,omitempty"`
	ItemID           string                   `json:"itemId,omitempty"`
	Value            any                      `json:"value,omitempty"`
	ArchetypeWeights map[archetype.ID]float64 `json:"archetypeWeights,omitempty"`
	Metadata         map[string]any           `json:"metadata,omitempty"`
}

// ImplicitPayload is a behavioural interaction record.
type ImplicitPayload struct {
	Kind     Kind           `json:"kind"`
	ItemID   string         `json:"itemId"`
	Duration *float64       `json:"duration,omitempty"`
	Context  string         `json:"context,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Signal is one atomic piece of evidence. Exactly one of Explicit and
// Implicit is set.
type Signal struct {
	Type      Type
	Source    Source
	Timestamp time.Time
	Explicit  *ExplicitPayload
	Implicit  *ImplicitPayload

	// TemporalWeight scales the signal's contribution to raw scores. Nil
	// means unannotated and counts as 1; a decayed weight of 0 stays 0.
	TemporalWeight *float64
}

// NewExplicit builds an explicit signal carrying archetype weights.
func NewExplicit(source Source, kind Kind, weights map[archetype.ID]float64, ts time.Time) Signal {
	return Signal{
		Type:      Explicit,
		Source:    source,
		Timestamp: ts,
		Explicit:  &ExplicitPayload{Kind: kind, ArchetypeWeights: weights},
	}
}

// NewImplicit builds an implicit interaction signal.
func NewImplicit(typ Type, source Source, kind Kind, itemID string, ts time.Time) Signal {
	return Signal{
		Type:      typ,
		Source:    source,
		Timestamp: ts,
		Implicit:  &ImplicitPayload{Kind: kind, ItemID: itemID},
	}
}

// Kind returns the payload discriminant, or "" when no payload is set.
func (s Signal) Kind() Kind {
	switch {
	case s.Explicit != nil:
		return s.Explicit.Kind
	case s.Implicit != nil:
		return s.Implicit.Kind
	}
	return ""
}

// ArchetypeWeights returns the explicit weight map, or nil.
func (s Signal) ArchetypeWeights() map[archetype.ID]float64 {
	if s.Explicit == nil {
		return nil
	}
	return s.Explicit.ArchetypeWeights
}

// Weight returns the temporal multiplier, defaulting to 1.
func (s Signal) Weight() float64 {
	if s.TemporalWeight == nil {
		return 1
	}
	return *s.TemporalWeight
}

// WithTemporalWeight returns a copy of s annotated with w.
func (s Signal) WithTemporalWeight(w float64) Signal {
	s.TemporalWeight = &w
	return s
}

// Unweighted returns copies of signals with temporal annotations removed.
// Decay weights are assigned by the engine, never taken from callers.
func Unweighted(signals []Signal) []Signal {
	if signals == nil {
		return nil
	}
	out := make([]Signal, len(signals))
	for i, s := range signals {
		s.TemporalWeight = nil
		out[i] = s
	}
	return out
}

type wireSignal struct {
	Type           Type            `json:"type"`
	Source         Source          `json:"source"`
	Timestamp      time.Time       `json:"timestamp"`
	Data           json.RawMessage `json:"data"`
	TemporalWeight *float64        `json:"temporalWeight,omitempty"`
}

// MarshalJSON encodes the payload under "data".
func (s Signal) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case s.Explicit != nil:
		data, err = json.Marshal(s.Explicit)
	case s.Implicit != nil:
		data, err = json.Marshal(s.Implicit)
	default:
		data = []byte("null")
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireSignal{
		Type:           s.Type,
		Source:         s.Source,
		Timestamp:      s.Timestamp,
		Data:           data,
		TemporalWeight: s.TemporalWeight,
	})
}

// UnmarshalJSON resolves the payload from data.kind. An unknown kind is a
// validation error.
func (s *Signal) UnmarshalJSON(b []byte) error {
	var w wireSignal
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var head struct {
		Kind Kind `json:"kind"`
	}
	if len(w.Data) > 0 && string(w.Data) != "null" {
		if err := json.Unmarshal(w.Data, &head); err != nil {
			return fmt.Errorf("%w: signal data: %v", apperr.ErrValidation, err)
		}
	}

	out := Signal{Type: w.Type, Source: w.Source, Timestamp: w.Timestamp, TemporalWeight: w.TemporalWeight}
	switch {
	case head.Kind.IsExplicit():
		var p ExplicitPayload
		if err := json.Unmarshal(w.Data, &p); err != nil {
			return fmt.Errorf("%w: explicit payload: %v", apperr.ErrValidation, err)
		}
		out.Explicit = &p
	case head.Kind.IsImplicit():
		var p ImplicitPayload
		if err := json.Unmarshal(w.Data, &p); err != nil {
			return fmt.Errorf("%w: implicit payload: %v", apperr.ErrValidation, err)
		}
		out.Implicit = &p
	default:
		return fmt.Errorf("%w: unknown signal kind %q", apperr.ErrValidation, head.Kind)
	}
	*s = out
	return nil
}
