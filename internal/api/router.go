package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// inbox, if non-nil, receives uploaded batches instead of inline ingestion.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *genomeservice.Service, inbox storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	bh := NewBatchHandler(svc, inbox)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Stateless.
	r.Post("/classify", h.Classify)
	r.Get("/archetypes", h.ListArchetypes)
	r.Post("/reading", h.DeriveReading)
	r.Post("/contexts/detect", h.DetectContext)
	r.Get("/profiler/stages", h.ListStages)
	r.Get("/profiler/training", h.TrainingCards)

	// Genomes.
	r.Get("/genomes", h.ListGenomes)
	r.Post("/genomes", h.CreateGenome)
	r.Route("/genomes/{owner}", func(r chi.Router) {
		r.Get("/", h.GetGenome)
		r.Delete("/", h.DeleteGenome)
		r.Post("/signals", h.UpdateGenome)
		r.Post("/evolve", h.EvolveGenome)
		r.Post("/reveal", h.RevealGenome)
		r.Post("/axes", h.SubmitAxes)
		r.Get("/recalibration", h.Recalibration)
		r.Get("/contexts", h.ListContexts)
		r.Get("/contexts/{label}", h.GetContext)
		r.Put("/contexts/{label}", h.UpdateContext)
		r.Get("/profiling", h.ProfilingStatus)
		r.Post("/profiling/{stage}", h.SubmitStage)
		r.Post("/training", h.SubmitTraining)
		r.Get("/keywords", h.GetKeywords)
		r.Post("/keywords", h.LearnKeywords)
	})
	r.Get("/compare", h.CompareGenomes)

	// Batch upload.
	r.Post("/batches", bh.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
