package classifier

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/signal"
)

// Standard context labels.
const (
	ContextCreating  = "Creating"
	ContextConsuming = "Consuming"
	ContextCurating  = "Curating"
)

// SignalWeights are per-type multipliers applied to raw signal scores.
type SignalWeights struct {
	Explicit              float64 `yaml:"explicit" json:"explicit"`
	IntentionalImplicit   float64 `yaml:"intentional_implicit" json:"intentionalImplicit"`
	UnintentionalImplicit float64 `yaml:"unintentional_implicit" json:"unintentionalImplicit"`
}

// For returns the multiplier for t. Unknown types get the weakest weight.
func (w SignalWeights) For(t signal.Type) float64 {
	switch t {
	case signal.Explicit:
		return w.Explicit
	case signal.IntentionalImplicit:
		return w.IntentionalImplicit
	}
	return w.UnintentionalImplicit
}

// Validate validates the signal weights.
func (w SignalWeights) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Explicit, validation.Min(0.0)),
		validation.Field(&w.IntentionalImplicit, validation.Min(0.0)),
		validation.Field(&w.UnintentionalImplicit, validation.Min(0.0)),
	)
}

// Config tunes the classification pipeline.
type Config struct {
	// Temperature multiplies blended scores before softmax. Higher values
	// sharpen the distribution.
	Temperature           float64       `yaml:"temperature" json:"temperature"`
	SecondaryThreshold    float64       `yaml:"secondary_threshold" json:"secondaryThreshold"`
	DistributionThreshold float64       `yaml:"distribution_threshold" json:"distributionThreshold"`
	SignalWeights         SignalWeights `yaml:"signal_weights" json:"signalWeights"`
	// PsychometricWeight is the share of the blended score taken from
	// profile similarity; the rest comes from raw signal weights.
	PsychometricWeight float64 `yaml:"psychometric_weight" json:"psychometricWeight"`
	TemporalDecay      float64 `yaml:"temporal_decay" json:"temporalDecay"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Temperature:           5,
		SecondaryThreshold:    0.15,
		DistributionThreshold: 0.01,
		SignalWeights: SignalWeights{
			Explicit:              1.0,
			IntentionalImplicit:   0.6,
			UnintentionalImplicit: 0.3,
		},
		PsychometricWeight: 0.7,
		TemporalDecay:      0.99,
	}
}

// Validate validates the scoring configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Temperature, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(100.0)),
		validation.Field(&c.SecondaryThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.DistributionThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SignalWeights),
		validation.Field(&c.PsychometricWeight, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.TemporalDecay, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
	)
}

// WeightOverrides is a partial SignalWeights.
type WeightOverrides struct {
	Explicit              *float64 `yaml:"explicit,omitempty" json:"explicit,omitempty"`
	IntentionalImplicit   *float64 `yaml:"intentional_implicit,omitempty" json:"intentionalImplicit,omitempty"`
	UnintentionalImplicit *float64 `yaml:"unintentional_implicit,omitempty" json:"unintentionalImplicit,omitempty"`
}

// Overrides is a partial Config. Nil fields keep the base value.
type Overrides struct {
	Temperature           *float64         `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	SecondaryThreshold    *float64         `yaml:"secondary_threshold,omitempty" json:"secondaryThreshold,omitempty"`
	DistributionThreshold *float64         `yaml:"distribution_threshold,omitempty" json:"distributionThreshold,omitempty"`
	SignalWeights         *WeightOverrides `yaml:"signal_weights,omitempty" json:"signalWeights,omitempty"`
	PsychometricWeight    *float64         `yaml:"psychometric_weight,omitempty" json:"psychometricWeight,omitempty"`
	TemporalDecay         *float64         `yaml:"temporal_decay,omitempty" json:"temporalDecay,omitempty"`
}

// Merge returns c with every non-nil override applied.
func (c Config) Merge(o Overrides) Config {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Temperature, o.Temperature)
	set(&c.SecondaryThreshold, o.SecondaryThreshold)
	set(&c.DistributionThreshold, o.DistributionThreshold)
	set(&c.PsychometricWeight, o.PsychometricWeight)
	set(&c.TemporalDecay, o.TemporalDecay)
	if w := o.SignalWeights; w != nil {
		set(&c.SignalWeights.Explicit, w.Explicit)
		set(&c.SignalWeights.IntentionalImplicit, w.IntentionalImplicit)
		set(&c.SignalWeights.UnintentionalImplicit, w.UnintentionalImplicit)
	}
	return c
}

func ptr(v float64) *float64 { return &v }

// contextPresets trust explicit signals more when creating and implicit
// ones more when consuming.
var contextPresets = map[string]Overrides{
	ContextCreating: {
		PsychometricWeight: ptr(0.8),
		SignalWeights:      &WeightOverrides{Explicit: ptr(1.0), IntentionalImplicit: ptr(0.4), UnintentionalImplicit: ptr(0.2)},
	},
	ContextConsuming: {
		PsychometricWeight: ptr(0.5),
		SignalWeights:      &WeightOverrides{Explicit: ptr(0.8), IntentionalImplicit: ptr(0.8), UnintentionalImplicit: ptr(0.5)},
	},
	ContextCurating: {
		PsychometricWeight: ptr(0.6),
		SignalWeights:      &WeightOverrides{Explicit: ptr(1.0), IntentionalImplicit: ptr(0.7), UnintentionalImplicit: ptr(0.3)},
	},
}

// ForContext applies the preset for label (if any) and then extra overrides
// on top of base. Free-form labels get base plus extra.
func ForContext(base Config, label string, extra ...Overrides) Config {
	cfg := base.Merge(contextPresets[label])
	for _, o := range extra {
		cfg = cfg.Merge(o)
	}
	return cfg
}

// Tuning bundles the base configuration with per-context overrides loaded
// from the application config.
type Tuning struct {
	Base     Config               `yaml:",inline"`
	Contexts map[string]Overrides `yaml:"contexts"`
}

// DefaultTuning returns the defaults with no context overrides.
func DefaultTuning() Tuning {
	return Tuning{Base: DefaultConfig()}
}

// ForContext resolves the configuration used for label.
func (t Tuning) ForContext(label string) Config {
	if o, ok := t.Contexts[label]; ok {
		return ForContext(t.Base, label, o)
	}
	return ForContext(t.Base, label)
}

// Validate validates the base config and every resolved context config.
func (t *Tuning) Validate() error {
	if err := t.Base.Validate(); err != nil {
		return err
	}
	for label := range t.Contexts {
		cfg := t.ForContext(label)
		if err := cfg.Validate(); err != nil {
			return validation.Errors{"contexts." + label: err}
		}
	}
	return nil
}
