package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
)

// Handler holds API route handlers.
type Handler struct {
	svc *genomeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *genomeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// urlParam returns a path parameter, decoding escapes left by clients that
// encode reserved characters in owner IDs or context labels.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// expectedVersion parses If-Match. A missing header yields 0, which skips the
// caller-side version check.
func expectedVersion(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.Trim(r.Header.Get("If-Match"), `"`)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid If-Match header"))
		return 0, false
	}
	return v, true
}

func writeGenome(w http.ResponseWriter, status int, g genome.Genome) {
	w.Header().Set("ETag", `"`+strconv.Itoa(g.Version)+`"`)
	writeJSON(w, status, genome.ToPublic(g))
}

func writeChange(w http.ResponseWriter, c genomeservice.Change) {
	status := http.StatusOK
	if c.Created {
		status = http.StatusCreated
	}
	w.Header().Set("ETag", `"`+strconv.Itoa(c.Genome.Version)+`"`)
	writeJSON(w, status, changeResponse(c))
}

// Classify handles POST /api/classify.
//
//	@Summary		Classify signals without storing a genome
//	@Tags			classify
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClassifyRequest	true	"Signals to classify"
//	@Success		200		{object}	ClassifyResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/classify [post]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Classify(r.Context(), req.Signals, req.Context)
	if err != nil {
		writeError(w, "classify", err)
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Context:           req.Context,
		Classification:    res.Classification,
		OverallConfidence: res.OverallConfidence,
	})
}

// ListArchetypes handles GET /api/archetypes.
//
//	@Summary		List the public archetype catalog
//	@Tags			archetypes
//	@Produce		json
//	@Success		200	{object}	ArchetypeListResponse
//	@Security		BearerAuth
//	@Router			/archetypes [get]
func (h *Handler) ListArchetypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ArchetypeListResponse{Archetypes: archetype.PublicCatalog()})
}

// DeriveReading handles POST /api/reading.
//
//	@Summary		Derive a hexagram reading from four axes
//	@Tags			reading
//	@Accept			json
//	@Produce		json
//	@Param			body	body		reading.AxesInput	true	"Axes in [0,1]"
//	@Success		200		{object}	reading.Reading
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reading [post]
func (h *Handler) DeriveReading(w http.ResponseWriter, r *http.Request) {
	var in reading.AxesInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.svc.DeriveReading(r.Context(), in)
	if err != nil {
		writeError(w, "derive reading", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DetectContext handles POST /api/contexts/detect.
//
//	@Summary		Guess the context signals were produced in
//	@Tags			contexts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignalsRequest	true	"Signals"
//	@Success		200		{object}	contexts.Detection
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contexts/detect [post]
func (h *Handler) DetectContext(w http.ResponseWriter, r *http.Request) {
	var req SignalsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.DetectContext(r.Context(), req.Signals)
	if err != nil {
		writeError(w, "detect context", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListGenomes handles GET /api/genomes.
//
//	@Summary		List genomes, newest first
//	@Tags			genomes
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	GenomeListResponse
//	@Security		BearerAuth
//	@Router			/genomes [get]
func (h *Handler) ListGenomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list genomes", err)
		return
	}
	writeJSON(w, http.StatusOK, GenomeListResponse{Genomes: items, Total: total})
}

// CreateGenome handles POST /api/genomes.
//
//	@Summary		Encode a new genome
//	@Tags			genomes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateGenomeRequest	true	"Owner and initial signals"
//	@Success		201		{object}	GenomeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes [post]
func (h *Handler) CreateGenome(w http.ResponseWriter, r *http.Request) {
	var req CreateGenomeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.Create(r.Context(), req.OwnerID, req.Signals)
	if err != nil {
		writeError(w, "create genome", err, slog.String("owner", req.OwnerID))
		return
	}
	writeGenome(w, http.StatusCreated, g)
}

// GetGenome handles GET /api/genomes/{owner}.
//
//	@Summary		Get the public genome of an owner
//	@Tags			genomes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Success		200		{object}	GenomeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner} [get]
func (h *Handler) GetGenome(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	g, err := h.svc.Get(r.Context(), owner)
	if err != nil {
		writeError(w, "get genome", err, slog.String("owner", owner))
		return
	}
	writeGenome(w, http.StatusOK, g)
}

// UpdateGenome handles POST /api/genomes/{owner}/signals.
//
//	@Summary		Merge new signals into a genome
//	@Tags			genomes
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string			true	"Owner ID"
//	@Param			If-Match	header		string			false	"Expected version"
//	@Param			body		body		SignalsRequest	true	"New signals"
//	@Success		200			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/signals [post]
func (h *Handler) UpdateGenome(w http.ResponseWriter, r *http.Request) {
	h.reclassify(w, r, "update genome", h.svc.Update)
}

// EvolveGenome handles POST /api/genomes/{owner}/evolve.
//
//	@Summary		Evolve a genome with decayed history
//	@Tags			genomes
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string			true	"Owner ID"
//	@Param			If-Match	header		string			false	"Expected version"
//	@Param			body		body		SignalsRequest	true	"New signals"
//	@Success		200			{object}	ChangeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/evolve [post]
func (h *Handler) EvolveGenome(w http.ResponseWriter, r *http.Request) {
	h.reclassify(w, r, "evolve genome", h.svc.Evolve)
}

type reclassifyFunc func(ctx context.Context, owner string, signals []signal.Signal, expectedVersion int) (genomeservice.Change, error)

func (h *Handler) reclassify(w http.ResponseWriter, r *http.Request, op string, fn reclassifyFunc) {
	owner := urlParam(r, "owner")
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req SignalsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := fn(r.Context(), owner, req.Signals, expected)
	if err != nil {
		writeError(w, op, err, slog.String("owner", owner))
		return
	}
	writeChange(w, c)
}

// RevealGenome handles POST /api/genomes/{owner}/reveal.
//
//	@Summary		Reveal the formal archetype names
//	@Tags			genomes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Success		200		{object}	GenomeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/reveal [post]
func (h *Handler) RevealGenome(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	g, err := h.svc.Reveal(r.Context(), owner)
	if err != nil {
		writeError(w, "reveal genome", err, slog.String("owner", owner))
		return
	}
	writeGenome(w, http.StatusOK, g)
}

// SubmitAxes handles POST /api/genomes/{owner}/axes.
//
//	@Summary		Derive a reading and store it on the genome
//	@Tags			reading
//	@Accept			json
//	@Produce		json
//	@Param			owner	path		string				true	"Owner ID"
//	@Param			body	body		reading.AxesInput	true	"Axes in [0,1]"
//	@Success		200		{object}	GenomeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/axes [post]
func (h *Handler) SubmitAxes(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	var in reading.AxesInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := h.svc.SubmitAxes(r.Context(), owner, in)
	if err != nil {
		writeError(w, "submit axes", err, slog.String("owner", owner))
		return
	}
	writeGenome(w, http.StatusOK, g)
}

// Recalibration handles GET /api/genomes/{owner}/recalibration.
//
//	@Summary		Report history size, stability and whether recalibration is due
//	@Tags			genomes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Success		200		{object}	evolution.Report
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/recalibration [get]
func (h *Handler) Recalibration(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	rep, err := h.svc.Recalibration(r.Context(), owner)
	if err != nil {
		writeError(w, "recalibration", err, slog.String("owner", owner))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListContexts handles GET /api/genomes/{owner}/contexts.
//
//	@Summary		List recently active contexts
//	@Tags			contexts
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Success		200		{object}	ContextListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/contexts [get]
func (h *Handler) ListContexts(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	views, err := h.svc.ActiveContexts(r.Context(), owner)
	if err != nil {
		writeError(w, "list contexts", err, slog.String("owner", owner))
		return
	}
	writeJSON(w, http.StatusOK, ContextListResponse{Contexts: views})
}

// GetContext handles GET /api/genomes/{owner}/contexts/{label}.
//
//	@Summary		Distribution and primary archetype under a context
//	@Tags			contexts
//	@Produce		json
//	@Param			owner	path		string	true	"Owner ID"
//	@Param			label	path		string	true	"Context label"
//	@Success		200		{object}	genomeservice.ContextView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/contexts/{label} [get]
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	view, err := h.svc.ContextView(r.Context(), owner, urlParam(r, "label"))
	if err != nil {
		writeError(w, "get context", err, slog.String("owner", owner))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateContext handles PUT /api/genomes/{owner}/contexts/{label}.
//
//	@Summary		Record signals under a context
//	@Tags			contexts
//	@Accept			json
//	@Produce		json
//	@Param			owner		path		string			true	"Owner ID"
//	@Param			label		path		string			true	"Context label"
//	@Param			If-Match	header		string			false	"Expected version"
//	@Param			body		body		SignalsRequest	true	"Signals"
//	@Success		200			{object}	genomeservice.ContextView
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner}/contexts/{label} [put]
func (h *Handler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	label := urlParam(r, "label")
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req SignalsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.UpdateContext(r.Context(), owner, label, req.Signals, expected)
	if err != nil {
		writeError(w, "update context", err, slog.String("owner", owner), slog.String("context", label))
		return
	}
	view, err := h.svc.ContextView(r.Context(), owner, label)
	if err != nil {
		writeError(w, "get context", err, slog.String("owner", owner))
		return
	}
	w.Header().Set("ETag", `"`+strconv.Itoa(g.Version)+`"`)
	writeJSON(w, http.StatusOK, view)
}

// CompareGenomes handles GET /api/compare.
//
//	@Summary		Cosine similarity of two genomes
//	@Tags			genomes
//	@Produce		json
//	@Param			a	query		string	true	"First owner"
//	@Param			b	query		string	true	"Second owner"
//	@Success		200	{object}	SimilarityResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compare [get]
func (h *Handler) CompareGenomes(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'a' and 'b' are required"))
		return
	}
	sim, err := h.svc.Compare(r.Context(), a, b)
	if err != nil {
		writeError(w, "compare genomes", err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarityResponse{A: a, B: b, Similarity: sim})
}

// DeleteGenome handles DELETE /api/genomes/{owner}.
//
//	@Summary		Delete a genome
//	@Tags			genomes
//	@Param			owner	path	string	true	"Owner ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{owner} [delete]
func (h *Handler) DeleteGenome(w http.ResponseWriter, r *http.Request) {
	owner := urlParam(r, "owner")
	if err := h.svc.Delete(r.Context(), owner); err != nil {
		writeError(w, "delete genome", err, slog.String("owner", owner))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
