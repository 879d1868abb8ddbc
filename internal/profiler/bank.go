// Package profiler runs progressive taste profiling: short staged
// questionnaires whose answers become explicit signals.
//
// The bank holds three stages. Initial is a three-question onboarding,
// music refines the profile once enough interactions are recorded and deep
// is an on-demand extended assessment. Scoring weights stay on the server;
// only prompts and answer options are serialised.
package profiler

import "github.com/starford/subtaste/internal/archetype"

// QuestionType is the answer format of a question.
type QuestionType string

const (
	Binary  QuestionType = "binary"
	Likert  QuestionType = "likert"
	Ranking QuestionType = "ranking"
)

// Category groups questions by the facet of taste they cover.
type Category string

const (
	CategoryCore     Category = "core"
	CategoryMusic    Category = "music"
	CategoryCreative Category = "creative"
	CategorySocial   Category = "social"
)

// Weights maps designations to signed evidence.
type Weights map[archetype.ID]float64

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Question is one item of the bank.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Category Category     `json:"category"`

	// Binary.
	Options       []string  `json:"options,omitempty"`
	OptionWeights []Weights `json:"-"`

	// Likert. Weights are scaled by agreement in [-1, 1].
	Scale     int     `json:"scale,omitempty"`
	LowLabel  string  `json:"lowLabel,omitempty"`
	HighLabel string  `json:"highLabel,omitempty"`
	Weights   Weights `json:"-"`

	// Ranking.
	Items       []string  `json:"items,omitempty"`
	ItemWeights []Weights `json:"-"`
}

const (
	agreeLow  = "Strongly disagree"
	agreeHigh = "Strongly agree"
)

var initialQuestions = []Question{
	{
		ID:       "init-1-approach",
		Type:     Binary,
		Prompt:   "When you find something good, you...",
		Category: CategorySocial,
		Options:  []string{"Keep it close", "Spread the word"},
		OptionWeights: []Weights{
			{archetype.Void: 0.7, archetype.Vault: 0.5, archetype.Wick: 0.3, archetype.Silt: 0.3, archetype.Toll: -0.5},
			{archetype.Toll: 0.8, archetype.Schism: 0.4, archetype.Anvil: 0.3, archetype.Void: -0.5, archetype.Vault: -0.3},
		},
	},
	{
		ID:       "init-2-timing",
		Type:     Binary,
		Prompt:   "Your taste tends to be...",
		Category: CategoryCore,
		Options:  []string{"Ahead of its time", "Refined within tradition"},
		OptionWeights: []Weights{
			{archetype.Omen: 0.8, archetype.Schism: 0.5, archetype.Keth: 0.4, archetype.Wick: 0.3, archetype.Vault: -0.4},
			{archetype.Vault: 0.7, archetype.Silt: 0.5, archetype.Strata: 0.4, archetype.Omen: -0.3},
		},
	},
	{
		ID:       "init-3-creation",
		Type:     Binary,
		Prompt:   "When creating, you prefer to...",
		Category: CategoryCreative,
		Options:  []string{"Build the structure first", "Discover through doing"},
		OptionWeights: []Weights{
			{archetype.Strata: 0.8, archetype.Anvil: 0.5, archetype.Cull: 0.4, archetype.Keth: 0.3, archetype.Wick: -0.4},
			{archetype.Wick: 0.7, archetype.Limn: 0.5, archetype.Void: 0.4, archetype.Omen: 0.3, archetype.Strata: -0.3},
		},
	},
}

var musicQuestions = []Question{
	{
		ID:        "music-1-complexity",
		Type:      Likert,
		Prompt:    "I gravitate toward music that rewards close listening.",
		Category:  CategoryMusic,
		Scale:     5,
		LowLabel:  agreeLow,
		HighLabel: agreeHigh,
		Weights:   Weights{archetype.Keth: 0.6, archetype.Strata: 0.7, archetype.Vault: 0.8, archetype.Anvil: -0.4, archetype.Toll: -0.2},
	},
	{
		ID:        "music-2-intensity",
		Type:      Likert,
		Prompt:    "I prefer music with aggressive energy.",
		Category:  CategoryMusic,
		Scale:     5,
		LowLabel:  agreeLow,
		HighLabel: agreeHigh,
		Weights:   Weights{archetype.Cull: 0.7, archetype.Toll: 0.6, archetype.Schism: 0.8, archetype.Silt: -0.5, archetype.Void: -0.4},
	},
	{
		ID:        "music-3-obscurity",
		Type:      Likert,
		Prompt:    "I lose interest once something becomes popular.",
		Category:  CategoryMusic,
		Scale:     5,
		LowLabel:  agreeLow,
		HighLabel: agreeHigh,
		Weights:   Weights{archetype.Omen: 0.8, archetype.Schism: 0.6, archetype.Keth: 0.5, archetype.Toll: -0.4, archetype.Limn: -0.2},
	},
}

var deepQuestions = []Question{
	{
		ID:       "deep-1-role",
		Type:     Ranking,
		Prompt:   "Rank these roles by how naturally they fit you:",
		Category: CategoryCreative,
		Items: []string{
			"The one who sets the standard",
			"The one who finds it first",
			"The one who shares it loudest",
			"The one who builds the collection",
			"The one who makes it real",
		},
		ItemWeights: []Weights{
			{archetype.Keth: 0.9},
			{archetype.Omen: 0.9},
			{archetype.Toll: 0.9},
			{archetype.Vault: 0.9},
			{archetype.Anvil: 0.9},
		},
	},
	{
		ID:        "deep-2-curation",
		Type:      Likert,
		Prompt:    "When curating a playlist, less is more.",
		Category:  CategoryCreative,
		Scale:     5,
		LowLabel:  agreeLow,
		HighLabel: agreeHigh,
		Weights:   Weights{archetype.Cull: 0.8, archetype.Keth: 0.5, archetype.Vault: -0.5, archetype.Limn: -0.3},
	},
	{
		ID:       "deep-3-influence",
		Type:     Binary,
		Prompt:   "You would rather...",
		Category: CategorySocial,
		Options:  []string{"Shape culture quietly from the margins", "Lead movements from the centre"},
		OptionWeights: []Weights{
			{archetype.Wick: 0.7, archetype.Void: 0.6, archetype.Silt: 0.5, archetype.Omen: 0.4, archetype.Toll: -0.5},
			{archetype.Keth: 0.7, archetype.Toll: 0.6, archetype.Anvil: 0.5, archetype.Void: -0.5},
		},
	},
	{
		ID:        "deep-4-disagreement",
		Type:      Likert,
		Prompt:    "I enjoy having unpopular opinions about art.",
		Category:  CategoryCore,
		Scale:     5,
		LowLabel:  agreeLow,
		HighLabel: agreeHigh,
		Weights:   Weights{archetype.Schism: 0.9, archetype.Keth: 0.5, archetype.Cull: 0.4, archetype.Limn: -0.5, archetype.Silt: -0.3},
	},
	{
		ID:       "deep-5-process",
		Type:     Binary,
		Prompt:   "The process of discovering matters more than what you find.",
		Category: CategoryCore,
		Options:  []string{"Agree", "Disagree"},
		OptionWeights: []Weights{
			{archetype.Wick: 0.7, archetype.Omen: 0.5, archetype.Void: 0.5, archetype.Anvil: -0.4},
			{archetype.Anvil: 0.7, archetype.Cull: 0.5, archetype.Keth: 0.4, archetype.Wick: -0.3},
		},
	},
}

var bank = map[StageID][]Question{
	StageInitial: initialQuestions,
	StageMusic:   musicQuestions,
	StageDeep:    deepQuestions,
}

// Questions returns the questions of a stage, or nil for an unknown stage.
func Questions(stage StageID) []Question {
	return append([]Question(nil), bank[stage]...)
}

// Lookup finds a question by id across all stages.
func Lookup(id string) (Question, StageID, bool) {
	for _, st := range stageOrder {
		for _, q := range bank[st] {
			if q.ID == id {
				return q, st, true
			}
		}
	}
	return Question{}, "", false
}
