package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/pagedims"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/transform"
)

// Worker processes a single transform job.
type Worker struct {
	log      *slog.Logger
	options  transform.Options
	pageDims pagedims.Provider
}

func NewWorker(cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{
		log:      log,
		options:  cfg.Transform.Options(),
		pageDims: cfg.PageDims(),
	}
}

// Process decodes the job input and maps it to a chunk corpus.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Decode
	job.SetStatus(StatusDecoding, "decoding")
	pages, err := parser.DecodeBytes(job.FileData())
	if err != nil {
		log.Error("decode failed", "error", err)
		job.AddError(fmt.Sprintf("decode: %s", err))
		job.SetStatus(StatusFailed, "decoding")
		return
	}
	job.SetPages(len(pages))
	log.Info("decoded input", "pages", len(pages))

	// Phase 2: Map
	job.SetStatus(StatusMapping, "mapping")
	t := transform.New(w.optionsFor(job, log))
	doc, err := t.Transform(ctx, pages)
	if err != nil {
		log.Error("transform failed", "error", err)
		job.AddError(fmt.Sprintf("transform: %s", err))
		job.SetStatus(StatusFailed, "mapping")
		return
	}

	job.SetResult(doc)
	// The input is no longer needed once the corpus exists.
	job.SetFileData(nil)
	log.Info("job complete", "chunks", len(doc.Chunks), "diagnostics", len(doc.Diagnostics))
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) optionsFor(job *Job, log *slog.Logger) transform.Options {
	job.mu.Lock()
	opts := w.options
	if job.options != nil {
		opts = *job.options
	}
	dims := job.pageDims
	job.mu.Unlock()

	if dims == nil {
		dims = w.pageDims
	}
	if opts.PageDims == nil {
		opts.PageDims = dims
	}
	opts.DocID = job.DocID
	opts.Logger = log
	return opts
}
