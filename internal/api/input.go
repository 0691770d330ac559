package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docchunk/internal/pagedims"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/transform"
)

// upload is one recognizer input plus the per-request transform settings.
type upload struct {
	filename string
	docID    string
	data     []byte
	options  transform.Options
	pageDims pagedims.Provider
}

// requestError carries the HTTP status for a rejected request.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// readUpload accepts either a raw JSON body or a multipart form with a
// "file" part and an optional "pdf" part used for page dimensions.
// Settings come from query parameters or form fields.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	// Room for the JSON plus a PDF, with 1MB of form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)

	up := &upload{filename: "body.json"}
	values := r.URL.Query()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, badRequest("invalid multipart form: %s", err)
		}
		defer r.MultipartForm.RemoveAll()
		values = r.Form

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, badRequest("file is required: %s", err)
		}
		defer file.Close()

		up.filename = sanitizeFilename(header.Filename)
		if !parser.IsSupportedExtension(up.filename) {
			return nil, badRequest("unsupported file type: %s", filepath.Ext(up.filename))
		}
		if up.data, err = s.readLimited(file); err != nil {
			return nil, err
		}

		if pdf, _, err := r.FormFile("pdf"); err == nil {
			defer pdf.Close()
			dims, err := pagedims.FromPDFReader(io.LimitReader(pdf, s.cfg.MaxUploadBytes), s.cfg.PDFDPI)
			if err != nil {
				return nil, badRequest("read pdf page sizes: %s", err)
			}
			up.pageDims = dims
		}
	} else {
		data, err := s.readLimited(r.Body)
		if err != nil {
			return nil, err
		}
		up.data = data
	}

	if len(up.data) == 0 {
		return nil, badRequest("empty input")
	}

	opts, dims, err := applyOverrides(values, s.cfg.Transform.Options())
	if err != nil {
		return nil, err
	}
	up.options = opts
	if dims != nil {
		up.pageDims = dims
	}
	if up.pageDims == nil {
		up.pageDims = s.cfg.PageDims()
	}
	up.docID = values.Get("doc_id")
	return up, nil
}

func (s *Server) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "request too large"}
		}
		return nil, &requestError{status: http.StatusBadRequest, msg: "failed to read input"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("input exceeds max size (%d bytes)", s.cfg.MaxUploadBytes),
		}
	}
	return data, nil
}

// applyOverrides layers request parameters over the configured options.
func applyOverrides(v url.Values, opts transform.Options) (transform.Options, pagedims.Provider, error) {
	ints := []struct {
		key string
		dst *int
	}{
		{"para_max_chars", &opts.ParaMaxChars},
		{"target_avg_length", &opts.TargetAvgLength},
		{"max_chunk_length", &opts.MaxChunkLength},
	}
	for _, f := range ints {
		if s := v.Get(f.key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return opts, nil, badRequest("%s must be a positive integer", f.key)
			}
			*f.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"fuse_figure_and_caption", &opts.FuseFigureAndCaption},
		{"strict_mode", &opts.StrictMode},
		{"optimize_for_rag", &opts.OptimizeForRAG},
		{"reclassify", &opts.Reclassify},
	}
	for _, f := range bools {
		if s := v.Get(f.key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return opts, nil, badRequest("%s must be a boolean", f.key)
			}
			*f.dst = b
		}
	}

	if s := v.Get("table_row_block_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, nil, badRequest("table_row_block_size must be a non-negative integer")
		}
		opts.TableRowBlockSize = nil
		if n > 0 {
			opts.TableRowBlockSize = &n
		}
	}

	if v.Has("exclude_labels") {
		opts.ExcludeLabels = []string{}
		for _, l := range strings.Split(v.Get("exclude_labels"), ",") {
			if l = strings.TrimSpace(l); l != "" {
				opts.ExcludeLabels = append(opts.ExcludeLabels, l)
			}
		}
	}

	ws, hs := v.Get("page_width"), v.Get("page_height")
	if ws == "" && hs == "" {
		return opts, nil, nil
	}
	w, werr := strconv.ParseFloat(ws, 64)
	h, herr := strconv.ParseFloat(hs, 64)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return opts, nil, badRequest("page_width and page_height must both be positive numbers")
	}
	return opts, pagedims.Static(w, h), nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
