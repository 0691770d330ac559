package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/docchunk/internal/compare"
	"github.com/dgallion1/docchunk/internal/report"
	"github.com/dgallion1/docchunk/internal/table"
)

type compareRequest struct {
	Live  json.RawMessage `json:"live"`
	Ideal json.RawMessage `json:"ideal"`
	IoU   float64         `json:"iou"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes)

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Live) == 0 || len(req.Ideal) == 0 {
		jsonError(w, "live and ideal are required", http.StatusBadRequest)
		return
	}
	live, err := compare.LoadCorpus(bytes.NewReader(req.Live))
	if err != nil {
		jsonError(w, "live: "+err.Error(), http.StatusBadRequest)
		return
	}
	ideal, err := compare.LoadCorpus(bytes.NewReader(req.Ideal))
	if err != nil {
		jsonError(w, "ideal: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comparison": compare.Compare(live, ideal),
		"similarity": compare.Similarity(live, ideal),
		"alignment":  compare.AlignBoxes(live, ideal, req.IoU),
	})
}

type tableRequest struct {
	HTML    string `json:"html"`
	Context string `json:"context"`
	Strict  bool   `json:"strict"`
}

func (s *Server) handleConvertTable(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.HTML == "" {
		jsonError(w, "html is required", http.StatusBadRequest)
		return
	}

	valid, reason := table.Validate(req.HTML)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      valid,
		"reason":     reason,
		"result":     table.Convert(req.HTML, table.Options{Context: req.Context, Strict: req.Strict}),
		"simplified": table.Simplify(req.HTML),
	})
}

// handleReport transforms the upload and returns the quality-control
// report. format=markdown or format=html return the rendered report only.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
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

	rep := report.Build(doc.DocID, pages, doc, time.Now().UTC())
	markdown := rep.Markdown()

	switch r.URL.Query().Get("format") {
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(markdown))
	case "html":
		out, err := report.HTML(markdown)
		if err != nil {
			jsonError(w, "render report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out))
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"report":          rep,
			"passed":          rep.Passed(),
			"recommendations": rep.Recommendations(),
			"markdown":        markdown,
		})
	}
}
