package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/transform"
)

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	pages, doc, err := s.runTransform(r.Context(), up)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.log.Info("transformed document",
		"doc_id", doc.DocID, "pages", len(pages), "chunks", len(doc.Chunks), "diagnostics", len(doc.Diagnostics))
	w.Header().Set("X-Diagnostics", strconv.Itoa(len(doc.Diagnostics)))
	writeJSON(w, http.StatusOK, doc)
}

// runTransform decodes and maps an upload synchronously.
func (s *Server) runTransform(ctx context.Context, up *upload) ([]doctree.Page, *doctree.Document, error) {
	pages, err := parser.DecodeBytes(up.data)
	if err != nil {
		if errors.Is(err, parser.ErrUnrecognizedInput) {
			return nil, nil, &requestError{status: http.StatusUnprocessableEntity, msg: err.Error()}
		}
		return nil, nil, badRequest("decode input: %s", err)
	}

	opts := up.options
	opts.DocID = up.docID
	if opts.DocID == "" {
		opts.DocID = pipeline.ContentHashHex(up.data)[:16]
	}
	opts.PageDims = up.pageDims
	opts.Logger = s.log.With("doc_id", opts.DocID)

	doc, err := transform.New(opts).Transform(ctx, pages)
	if err != nil {
		return nil, nil, &requestError{status: http.StatusInternalServerError, msg: fmt.Sprintf("transform: %s", err)}
	}
	return pages, doc, nil
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	job := pipeline.NewJob(up.filename, up.docID, up.data)
	job.SetOptions(up.options)
	if up.pageDims != nil {
		job.SetPageDims(up.pageDims)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		writeJSON(w, http.StatusOK, job.Result())
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "job failed",
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
	default:
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		jsonError(w, re.msg, re.status)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
