package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/parser"
	"github.com/starford/subtaste/internal/storage"
)

const maxBatchBytes = 10 << 20

// BatchHandler accepts signal batch uploads. With an inbox configured the
// file is queued for the inbox processor, otherwise it is ingested inline.
type BatchHandler struct {
	svc   *genomeservice.Service
	inbox storage.Provider
}

// NewBatchHandler creates a batch handler. inbox may be nil.
func NewBatchHandler(svc *genomeservice.Service, inbox storage.Provider) *BatchHandler {
	return &BatchHandler{svc: svc, inbox: inbox}
}

// safeName validates that the filename is a plain batch file name with no
// path separators or traversal.
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !storage.IsBatchFile(cleaned) {
		return "", fmt.Errorf("unsupported batch extension: %s", filepath.Ext(cleaned))
	}
	return cleaned, nil
}

// Upload handles POST /api/batches (multipart/form-data, field "file").
//
//	@Summary		Upload a signal batch file
//	@Tags			batches
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Batch file (.json, .yaml, .yml)"
//	@Success		200		{object}	ChangeResponse
//	@Success		202		{object}	BatchQueuedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/batches [post]
func (h *BatchHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)

	if err := r.ParseMultipartForm(maxBatchBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	res, err := parser.Parse(name, data, time.Now().UTC())
	if err != nil {
		writeError(w, "parse batch", err)
		return
	}
	if err := res.Batch.Validate(); err != nil {
		writeError(w, "parse batch", err)
		return
	}

	if h.inbox == nil {
		c, err := h.svc.Ingest(r.Context(), res.Batch)
		if err != nil {
			writeError(w, "ingest batch", err)
			return
		}
		writeChange(w, c)
		return
	}

	if _, readErr := h.inbox.Read(name); readErr == nil {
		writeJSON(w, http.StatusConflict, errorBody("batch already queued: "+name))
		return
	}
	if err := h.inbox.Write(name, data); err != nil {
		writeError(w, "queue batch", err)
		return
	}
	writeJSON(w, http.StatusAccepted, BatchQueuedResponse{Filename: name, Size: int64(len(data))})
}
