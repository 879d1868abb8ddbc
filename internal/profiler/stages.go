package profiler

import (
	"math"
	"slices"
	"time"

	"github.com/starford/subtaste/internal/genome"
)

// StageID names a profiling stage.
type StageID string

const (
	StageInitial StageID = "initial"
	StageMusic   StageID = "music"
	StageDeep    StageID = "deep"
)

var stageOrder = []StageID{StageInitial, StageMusic, StageDeep}

// Trigger decides when a stage is offered.
type Trigger string

const (
	TriggerOnboarding Trigger = "onboarding"
	TriggerMilestone  Trigger = "milestone"
	TriggerPeriodic   Trigger = "periodic"
	TriggerOnDemand   Trigger = "on-demand"
)

// MaxConfidence caps the confidence profiling can claim.
const MaxConfidence = 0.95

// periodicDays is the gap before a periodic stage is offered again.
const periodicDays = 30

// Stage describes one step of the profiling journey.
type Stage struct {
	ID                 StageID   `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Trigger            Trigger   `json:"trigger"`
	MilestoneThreshold int       `json:"milestoneThreshold,omitempty"`
	QuestionCount      int       `json:"questionCount"`
	EstimatedSeconds   int       `json:"estimatedSeconds"`
	ConfidenceGain     float64   `json:"confidenceGain"`
	Prerequisites      []StageID `json:"prerequisites"`
}

var stages = []Stage{
	{
		ID:               StageInitial,
		Name:             "Initial Spark",
		Description:      "Three questions to discover your primary Glyph.",
		Trigger:          TriggerOnboarding,
		QuestionCount:    3,
		EstimatedSeconds: 30,
		ConfidenceGain:   0.3,
		Prerequisites:    []StageID{},
	},
	{
		ID:                 StageMusic,
		Name:               "Music Calibration",
		Description:        "Refine your taste profile with music-specific questions.",
		Trigger:            TriggerMilestone,
		MilestoneThreshold: 5,
		QuestionCount:      3,
		EstimatedSeconds:   45,
		ConfidenceGain:     0.15,
		Prerequisites:      []StageID{StageInitial},
	},
	{
		ID:               StageDeep,
		Name:             "Deep Calibration",
		Description:      "Unlock your full taste genome with an extended assessment.",
		Trigger:          TriggerOnDemand,
		QuestionCount:    5,
		EstimatedSeconds: 120,
		ConfidenceGain:   0.2,
		Prerequisites:    []StageID{StageInitial, StageMusic},
	},
}

// Stages returns every stage in journey order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	for i, s := range stages {
		s.Prerequisites = slices.Clone(s.Prerequisites)
		out[i] = s
	}
	return out
}

// GetStage looks a stage up by id.
func GetStage(id StageID) (Stage, bool) {
	for _, s := range Stages() {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// State is where one person stands in the journey.
type State struct {
	Completed        []StageID  `json:"completedStages"`
	InteractionCount int        `json:"interactionCount"`
	LastCompletedAt  *time.Time `json:"lastStageCompletedAt"`
	Confidence       float64    `json:"totalConfidence"`
}

// Has reports whether id is completed.
func (s State) Has(id StageID) bool {
	return slices.Contains(s.Completed, id)
}

// InferState derives the journey state from a stored genome. Stages recorded
// on the genome count as completed, and so do stages implied by its
// evidence: confidence of 0.3 implies onboarding, 0.5 with more than ten
// signals implies music calibration and 0.7 implies deep calibration.
func InferState(g genome.Genome) State {
	conf := g.Behaviour.Confidence
	history := len(g.Behaviour.SignalHistory)
	implied := map[StageID]bool{
		StageInitial: conf >= 0.3,
		StageMusic:   conf >= 0.5 && history > 10,
		StageDeep:    conf >= 0.7,
	}

	st := State{InteractionCount: history, Confidence: conf}
	for _, id := range stageOrder {
		if implied[id] || g.HasStage(string(id)) {
			st.Completed = append(st.Completed, id)
		}
	}
	for _, rec := range g.Behaviour.Stages {
		if st.LastCompletedAt == nil || rec.CompletedAt.After(*st.LastCompletedAt) {
			t := rec.CompletedAt
			st.LastCompletedAt = &t
		}
	}
	return st
}

// Available reports whether stage can be taken now.
func Available(stage Stage, st State, now time.Time) bool {
	if st.Has(stage.ID) {
		return false
	}
	for _, p := range stage.Prerequisites {
		if !st.Has(p) {
			return false
		}
	}
	switch stage.Trigger {
	case TriggerOnboarding:
		return len(st.Completed) == 0
	case TriggerMilestone:
		return stage.MilestoneThreshold > 0 && st.InteractionCount >= stage.MilestoneThreshold
	case TriggerOnDemand:
		return true
	case TriggerPeriodic:
		return st.LastCompletedAt == nil || now.Sub(*st.LastCompletedAt) >= periodicDays*24*time.Hour
	}
	return false
}

var triggerPriority = []Trigger{TriggerOnboarding, TriggerMilestone, TriggerPeriodic, TriggerOnDemand}

// Next returns the stage to offer, preferring onboarding, then milestones,
// then periodic and finally on-demand stages.
func Next(st State, now time.Time) (Stage, bool) {
	for _, trig := range triggerPriority {
		for _, s := range Stages() {
			if s.Trigger == trig && Available(s, st, now) {
				return s, true
			}
		}
	}
	return Stage{}, false
}

// ShouldPrompt reports whether the next stage should be offered unasked.
// On-demand stages never are.
func ShouldPrompt(st State, now time.Time) bool {
	s, ok := Next(st, now)
	return ok && s.Trigger != TriggerOnDemand
}

// Progress is the completed share of all stages.
func Progress(st State) float64 {
	done := 0
	for _, id := range stageOrder {
		if st.Has(id) {
			done++
		}
	}
	return float64(done) / float64(len(stageOrder))
}

// ConfidenceGain estimates the confidence a stage adds from current, with
// diminishing returns toward MaxConfidence.
func ConfidenceGain(id StageID, current float64) float64 {
	s, ok := GetStage(id)
	if !ok {
		return 0
	}
	effective := s.ConfidenceGain * (1 - current/MaxConfidence)
	return math.Max(0, math.Min(MaxConfidence-current, effective))
}

// Status is the reportable journey state.
type Status struct {
	State        State   `json:"state"`
	Next         *Stage  `json:"nextStage"`
	ShouldPrompt bool    `json:"shouldPrompt"`
	Progress     float64 `json:"progress"`
	ExpectedGain float64 `json:"expectedConfidenceGain"`
}

// StatusOf builds a Status for st.
func StatusOf(st State, now time.Time) Status {
	out := Status{
		State:        st,
		ShouldPrompt: ShouldPrompt(st, now),
		Progress:     Progress(st),
	}
	if out.State.Completed == nil {
		out.State.Completed = []StageID{}
	}
	if next, ok := Next(st, now); ok {
		out.Next = &next
		out.ExpectedGain = ConfidenceGain(next.ID, st.Confidence)
	}
	return out
}
