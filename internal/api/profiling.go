package api

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/starford/subtaste/internal/profiler"
)

const (
	defaultKeywordLimit  = 10
	defaultTrainingCards = 5
)

// ListStages handles GET /api/profiler/stages.
//
//	@Summary		List profiling stages and their questions
//	@Tags			profiling
//	@Produce		json
//	@Success		200	{object}	StageListResponse
//	@Security		BearerAuth
//	@Router			/profiler/stages [get]
func (h *Handler) ListStages(w http.ResponseWriter, _ *http.Request) {
	all := profiler.Stages()
	out := make([]StageQuestions, len(all))
	for i, s := range all {
		out[i] = StageQuestions{Stage: s, Questions: profiler.Questions(s.ID)}
	}
	writeJSON(w, http.StatusOK, StageListResponse{Stages: out})
}

// ProfilingStatus handles GET /api/genomes/{owner}/profiling.
//
//	@Summary		Where an owner stands in the profiling journey
//	@Tags			profiling
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Success		200		{object}	profiler.Status
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/profiling [get]
func (h *Handler) ProfilingStatus(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	st, err := h.svc.ProfilingStatus(r.Context(), owner)
	if err != nil {
		writeError(w, "profiling status", err, slog.String("owner", owner))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SubmitStage handles POST /api/genomes/{owner}/profiling/{stage}.
//
//	@Summary		Submit the answers of a profiling stage
//	@Tags			profiling
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string			true	"Owner ID"
//	@Param			stage		path		string			true	"Stage ID"
//	@Param			If-Match	header		string			false	"Expected version"
//	@Param			body		body		StageSubmission	true	"Answers"
//	@Success		200			{object}	ChangeResponse
//	@Success		201			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/profiling/{stage} [post]
func (h *Handler) SubmitStage(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	stage := profiler.StageID(urlParam(r, "stage"))
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req StageSubmission
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.SubmitStage(r.Context(), owner, stage, req.Responses, expected)
	if err != nil {
		writeError(w, "submit stage", err, slog.String("owner", owner), slog.String("stage", string(stage)))
		return
	}
	writeChange(w, c)
}

// TrainingCards handles GET /api/profiler/training.
//
//	@Summary		Deal best/worst training cards
//	@Tags			profiling
//	@Produce		json
//	@Param			cards	query		int	false	"Number of cards"
//	@Success		200		{object}	TrainingResponse
//	@Security		BearerAuth
//	@Router			/profiler/training [get]
func (h *Handler) TrainingCards(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("cards"))
	if err != nil || n <= 0 {
		n = defaultTrainingCards
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	writeJSON(w, http.StatusOK, TrainingResponse{Cards: profiler.TrainingSession(n, rng)})
}

// SubmitTraining handles POST /api/genomes/{owner}/training.
//
//	@Summary		Submit best/worst picks from training cards
//	@Tags			profiling
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string				true	"Owner ID"
//	@Param			If-Match	header		string				false	"Expected version"
//	@Param			body		body		TrainingSubmission	true	"Picks"
//	@Success		200			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/training [post]
func (h *Handler) SubmitTraining(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req TrainingSubmission
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.SubmitTraining(r.Context(), owner, req.Picks, expected)
	if err != nil {
		writeError(w, "submit training", err, slog.String("owner", owner))
		return
	}
	writeChange(w, c)
}

// GetKeywords handles GET /api/genomes/{owner}/keywords.
//
//	@Summary		Keywords an owner is drawn to or repelled by
//	@Tags			keywords
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Param			limit	query		int		false	"Keywords per list"
//	@Success		200		{object}	KeywordsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/keywords [get]
func (h *Handler) GetKeywords(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultKeywordLimit
	}
	prof, err := h.svc.Keywords(r.Context(), owner, limit)
	if err != nil {
		writeError(w, "get keywords", err, slog.String("owner", owner))
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// LearnKeywords handles POST /api/genomes/{owner}/keywords.
//
//	@Summary		Learn keywords from descriptive text
//	@Tags			keywords
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string			true	"Owner ID"
//	@Param			If-Match	header		string			false	"Expected version"
//	@Param			body		body		KeywordsRequest	true	"Text to learn from"
//	@Success		200			{object}	KeywordsResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/keywords [post]
func (h *Handler) LearnKeywords(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req KeywordsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.LearnKeywords(r.Context(), owner, req.Text, req.Weight, req.Polarity, expected)
	if err != nil {
		writeError(w, "learn keywords", err, slog.String("owner", owner))
		return
	}
	prof, err := h.svc.Keywords(r.Context(), owner, defaultKeywordLimit)
	if err != nil {
		writeError(w, "get keywords", err, slog.String("owner", owner))
		return
	}
	w.Header().Set("ETag", `"`+strconv.Itoa(g.Version)+`"`)
	writeJSON(w, http.StatusOK, prof)
}
