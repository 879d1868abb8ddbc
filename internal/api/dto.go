package api

import (
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/keywords"
	"github.com/starford/subtaste/internal/profiler"
	"github.com/starford/subtaste/internal/signal"
)

// SignalsRequest carries a list of signals.
type SignalsRequest struct {
	Signals []signal.Signal `json:"signals" validate:"required"`
}

// ClassifyRequest is the request body for stateless classification.
type ClassifyRequest struct {
	Signals []signal.Signal `json:"signals" validate:"required"`
	Context string          `json:"context,omitempty" example:"Curating"`
}

// CreateGenomeRequest is the request body for creating a genome.
type CreateGenomeRequest struct {
	OwnerID string          `json:"userId" example:"user-42" validate:"required"`
	Signals []signal.Signal `json:"signals"`
}

// ClassifyResponse omits the engine-only parts of a classification result.
type ClassifyResponse struct {
	Context           string                    `json:"context,omitempty" example:"Curating"`
	Classification    classifier.Classification `json:"classification" validate:"required"`
	OverallConfidence float64                   `json:"overallConfidence" example:"0.42"`
}

// GenomeResponse is the public genome returned by every genome route.
type GenomeResponse = genome.PublicGenome

// ChangeResponse is returned by routes that reclassify a genome.
type ChangeResponse struct {
	Genome  GenomeResponse `json:"genome" validate:"required"`
	Created bool           `json:"created,omitempty"`
	Drift   float64        `json:"drift" example:"0.12"`
	Drifted bool           `json:"drifted"`
}

func changeResponse(c genomeservice.Change) ChangeResponse {
	return ChangeResponse{
		Genome:  genome.ToPublic(c.Genome),
		Created: c.Created,
		Drift:   c.Drift,
		Drifted: c.Drifted,
	}
}

// GenomeListResponse wraps paginated genome summaries.
type GenomeListResponse struct {
	Genomes []genomestore.Summary `json:"genomes" validate:"required"`
	Total   int                   `json:"total" example:"42" validate:"required"`
}

// ArchetypeListResponse wraps the public catalog.
type ArchetypeListResponse struct {
	Archetypes []archetype.Public `json:"archetypes" validate:"required"`
}

// ContextListResponse wraps the active contexts of a genome.
type ContextListResponse struct {
	Contexts []genomeservice.ContextView `json:"contexts" validate:"required"`
}

// SimilarityResponse is the cosine similarity of two genomes.
type SimilarityResponse struct {
	A          string  `json:"a" example:"user-1"`
	B          string  `json:"b" example:"user-2"`
	Similarity float64 `json:"similarity" example:"0.87"`
}

// BatchQueuedResponse is returned when an uploaded batch is queued in the inbox.
type BatchQueuedResponse struct {
	Filename string `json:"filename" example:"feed-0412.json" validate:"required"`
	Size     int64  `json:"size" example:"2048" validate:"required"`
}

// StageQuestions is one profiling stage with its questions.
type StageQuestions struct {
	profiler.Stage
	Questions []profiler.Question `json:"questions" validate:"required"`
}

// StageListResponse lists the profiling stages in journey order.
type StageListResponse struct {
	Stages []StageQuestions `json:"stages" validate:"required"`
}

// StageSubmission answers every question of one stage.
type StageSubmission struct {
	Responses []profiler.Response `json:"responses" validate:"required"`
}

// TrainingResponse carries freshly dealt training cards.
type TrainingResponse struct {
	Cards []profiler.TrainingCard `json:"cards" validate:"required"`
}

// TrainingSubmission answers training cards.
type TrainingSubmission struct {
	Picks []profiler.TrainingPick `json:"picks" validate:"required"`
}

// KeywordsRequest feeds descriptive text into keyword learning.
type KeywordsRequest struct {
	Text     string            `json:"text" example:"dark cinematic slow" validate:"required"`
	Weight   float64           `json:"weight,omitempty" example:"1"`
	Polarity keywords.Polarity `json:"polarity,omitempty" example:"positive"`
}

// KeywordsResponse is the keyword view of a genome.
type KeywordsResponse = keywords.Profile
