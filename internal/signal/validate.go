package signal

import (
	"errors"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/apperr"
)

// Validate checks the discriminants and payload of s. Failures wrap
// apperr.ErrValidation.
func (s Signal) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.In(Explicit, IntentionalImplicit, UnintentionalImplicit)),
		validation.Field(&s.Source, validation.Required, validation.In(sourceValues()...)),
		validation.Field(&s.Timestamp, validation.Required),
		validation.Field(&s.TemporalWeight, validation.Min(0.0), validation.Max(1.0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if err := s.validatePayload(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

func (s Signal) validatePayload() error {
	switch {
	case s.Explicit != nil && s.Implicit != nil:
		return errors.New("signal carries both explicit and implicit payloads")
	case s.Explicit == nil && s.Implicit == nil:
		return errors.New("signal has no payload")
	}

	if s.Explicit != nil {
		if s.Type != Explicit {
			return fmt.Errorf("explicit payload on %s signal", s.Type)
		}
		if !s.Explicit.Kind.IsExplicit() {
			return fmt.Errorf("unknown explicit kind %q", s.Explicit.Kind)
		}
		for id, w := range s.Explicit.ArchetypeWeights {
			if !id.Valid() {
				return fmt.Errorf("unknown archetype %q in weights", id)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("weight for %s is not finite", id)
			}
		}
		return nil
	}

	if s.Type == Explicit {
		return errors.New("implicit payload on explicit signal")
	}
	if !s.Implicit.Kind.IsImplicit() {
		return fmt.Errorf("unknown implicit kind %q", s.Implicit.Kind)
	}
	if d := s.Implicit.Duration; d != nil && (math.IsNaN(*d) || *d < 0) {
		return errors.New("duration must be a non-negative number")
	}
	return nil
}

// ValidateAll validates every signal and reports the index of the first
// failure.
func ValidateAll(signals []Signal) error {
	for i, s := range signals {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("signal %d: %w", i, err)
		}
	}
	return nil
}

func sourceValues() []any {
	out := make([]any, len(Sources))
	for i, src := range Sources {
		out[i] = src
	}
	return out
}
