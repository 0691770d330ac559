package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/pipeline"
)

const sampleInput = `{"pages":[{"page_number":1,"elements":[
 {"label":"title","text":"Quarterly Report","bbox":[100,100,900,160],"reading_order":0},
 {"label":"para","text":"Revenue grew in every region during the quarter, driven by new customers.","bbox":[100,200,900,400],"reading_order":1},
 {"label":"header","text":"ACME Corp","bbox":[0,0,1000,50],"reading_order":2}
]}]}`

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.WorkerCount = 1
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func do(s *Server, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeDoc(t *testing.T, rec *httptest.ResponseRecorder) doctree.Document {
	t.Helper()
	var doc doctree.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestTransform_RawBody(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/transform?doc_id=q3&page_width=1000&page_height=1000",
		strings.NewReader(sampleInput), map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decodeDoc(t, rec)
	assert.Equal(t, "q3", doc.DocID)
	assert.Equal(t, "dolphin", doc.Source)
	assert.Equal(t, 1, doc.PageCount)
	require.NotEmpty(t, doc.Chunks)
	assert.NotNil(t, doc.Chunks[0].Box())
	assert.NotContains(t, doc.Markdown, "ACME Corp")
	assert.True(t, doc.ExtractionMetadata.ValidationApplied)
}

func TestTransform_ExcludeNothing(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/transform?exclude_labels=&optimize_for_rag=false",
		strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decodeDoc(t, rec)
	assert.Contains(t, doc.Markdown, "ACME Corp")
	assert.False(t, doc.ExtractionMetadata.OptimizationApplied)
	assert.Empty(t, doc.ExtractionMetadata.OptimizationTimestamp)
}

func TestTransform_DefaultDocID(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/transform", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decodeDoc(t, rec)
	assert.Equal(t, pipeline.ContentHashHex([]byte(sampleInput))[:16], doc.DocID)
	for _, c := range doc.Chunks {
		assert.Nil(t, c.Box(), "expected null boxes without page sizes")
	}
}

func TestTransform_Multipart(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("doc_id", "upload"))
	require.NoError(t, mw.WriteField("page_width", "2000"))
	require.NoError(t, mw.WriteField("page_height", "2000"))
	fw, err := mw.CreateFormFile("file", "../../scan.json")
	require.NoError(t, err)
	fw.Write([]byte(sampleInput))
	require.NoError(t, mw.Close())

	rec := do(s, http.MethodPost, "/api/transform", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decodeDoc(t, rec)
	assert.Equal(t, "upload", doc.DocID)
	require.NotNil(t, doc.Chunks[0].Box())
	assert.Equal(t, 0.05, doc.Chunks[0].Box().L)
}

func TestTransform_UnsupportedExtension(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "scan.pdf")
	fw.Write([]byte("%PDF-1.4"))
	mw.Close()

	rec := do(s, http.MethodPost, "/api/transform", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransform_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 64 })

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"unrecognized shape", "/api/transform", `"text"`, http.StatusUnprocessableEntity},
		{"empty body", "/api/transform", ``, http.StatusBadRequest},
		{"bad option", "/api/transform?para_max_chars=abc", `[]`, http.StatusBadRequest},
		{"half page size", "/api/transform?page_width=100", `[]`, http.StatusBadRequest},
		{"too large", "/api/transform", sampleInput, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, tt.target, strings.NewReader(tt.body), nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected json error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "sekret" })

	rec := do(s, http.MethodPost, "/api/transform", strings.NewReader(sampleInput), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/transform", strings.NewReader(sampleInput),
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/transform", strings.NewReader(sampleInput),
		map[string]string{"Authorization": "Bearer sekret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public.
	rec = do(s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobs_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/jobs?doc_id=async", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		JobID   string `json:"job_id"`
		DocID   string `json:"doc_id"`
		PollURL string `json:"poll_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "async", accepted.DocID)
	assert.Equal(t, "/api/jobs/"+accepted.JobID, accepted.PollURL)

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = do(s, http.MethodGet, accepted.PollURL, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, pipeline.StatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.Progress.Pages)

	rec = do(s, http.MethodGet, accepted.PollURL+"/result", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeDoc(t, rec)
	assert.Equal(t, "async", doc.DocID)
	assert.Len(t, doc.Chunks, snap.Progress.Chunks)
}

func TestJobs_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/jobs/nope", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/jobs/nope/result", nil, nil).Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/transform?page_width=1000&page_height=1000", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	corpus := rec.Body.String()

	body := `{"live":` + corpus + `,"ideal":` + corpus + `}`
	rec = do(s, http.MethodPost, "/api/compare", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Comparison struct {
			Score float64 `json:"score"`
			Label string  `json:"label"`
		} `json:"comparison"`
		Alignment struct {
			Fraction float64 `json:"fraction"`
		} `json:"alignment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.InDelta(t, 1.0, out.Comparison.Score, 1e-9)
	assert.Equal(t, "excellent", out.Comparison.Label)
	assert.InDelta(t, 1.0, out.Alignment.Fraction, 1e-9)
}

func TestCompare_MissingCorpus(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/compare", strings.NewReader(`{"live":{"chunks":[]}}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertTable(t *testing.T) {
	s := newTestServer(t, nil)
	html := `<table><tr><th>Name</th><th>Qty</th></tr><tr><td>alpha</td><td>1</td></tr><tr><td>beta</td><td>2</td></tr></table>`
	body, _ := json.Marshal(map[string]any{"html": html})

	rec := do(s, http.MethodPost, "/api/tables/convert", bytes.NewReader(body), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Valid  bool `json:"valid"`
		Result struct {
			Headers      []string `json:"headers"`
			RowSentences []string `json:"row_sentences"`
			Markdown     string   `json:"markdown"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Valid)
	assert.Equal(t, []string{"Name", "Qty"}, out.Result.Headers)
	assert.Len(t, out.Result.RowSentences, 2)
	assert.Contains(t, out.Result.Markdown, "| Name | Qty |")

	rec = do(s, http.MethodPost, "/api/tables/convert", strings.NewReader(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReport(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/api/report?doc_id=qc", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Passed   bool   `json:"passed"`
		Markdown string `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Passed)
	assert.Contains(t, out.Markdown, "qc")

	rec = do(s, http.MethodPost, "/api/report?format=html", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>")

	rec = do(s, http.MethodPost, "/api/report?format=markdown", strings.NewReader(sampleInput), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "#"))
}
