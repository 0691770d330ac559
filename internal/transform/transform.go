// Package transform maps layout-recognizer pages into a grounded chunk
// corpus ready for retrieval indexing.
package transform

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/quality"
	"golang.org/x/sync/errgroup"
)

// Source is the value of Document.Source for every transform.
const Source = "dolphin"

const isoMicros = "2006-01-02T15:04:05.000000"

// Transformer turns pages into a Document. It holds no per-document state
// and is safe for concurrent use.
type Transformer struct {
	opts    Options
	exclude map[string]bool
}

// New returns a Transformer. Zero-valued numeric options fall back to
// their defaults.
func New(opts Options) *Transformer {
	opts = opts.withDefaults()
	return &Transformer{opts: opts, exclude: labelSet(opts.ExcludeLabels)}
}

// TransformJSON decodes recognizer output and transforms it. The only
// fatal error is an unrecognized input shape (parser.ErrUnrecognizedInput).
func (t *Transformer) TransformJSON(ctx context.Context, r io.Reader) (*doctree.Document, error) {
	pages, err := parser.Decode(r)
	if err != nil {
		return nil, err
	}
	return t.Transform(ctx, pages)
}

// Transform maps every page to chunks, then runs the grouping passes and
// validation over the whole document. Pages are mapped in parallel; the
// passes that follow see chunks in page order and run sequentially.
func (t *Transformer) Transform(ctx context.Context, pages []doctree.Page) (*doctree.Document, error) {
	log := t.opts.Logger.With("doc_id", t.opts.DocID)

	results := make([]pageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.mapPage(pages[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("map pages: %w", err)
	}

	doc := &doctree.Document{
		DocID:          t.opts.DocID,
		Source:         Source,
		PageCount:      len(pages),
		ExtractionDate: isoTimestamp(t.opts.Now()),
		Metadata:       doctree.DocMetadata{Language: "und"},
		Chunks:         []doctree.Chunk{},
	}

	var md strings.Builder
	for _, res := range results {
		doc.Chunks = append(doc.Chunks, res.chunks...)
		for _, part := range res.markdown {
			md.WriteString(part)
		}
		doc.Diagnostics = append(doc.Diagnostics, res.diags...)
	}
	doc.Markdown = strings.TrimSpace(md.String())
	mapped := len(doc.Chunks)

	if len(doc.Chunks) > 0 {
		doc.Chunks = chunker.GroupSmall(doc.Chunks, chunker.DefaultGroupConfig())
	}
	grouped := len(doc.Chunks)

	if t.opts.OptimizeForRAG {
		doc.Chunks = chunker.Optimize(doc.Chunks, chunker.OptimizeConfig{
			Context:        chunker.DefaultContextConfig(),
			MaxChunkLength: t.opts.MaxChunkLength,
			Reclassify:     t.opts.Reclassify,
		})
		meta := &doc.ExtractionMetadata
		meta.OptimizationApplied = true
		meta.OptimizationTimestamp = isoTimestamp(t.opts.Now())
		meta.OriginalChunkCount = grouped
		meta.OptimizedChunkCount = len(doc.Chunks)
		meta.MedianChunkLength = chunker.Lengths(doc.Chunks).Median
		meta.TargetAvgLength = t.opts.TargetAvgLength
	}

	if doc.Chunks == nil {
		doc.Chunks = []doctree.Chunk{}
	}
	quality.Validate(doc)
	for _, d := range doc.Diagnostics {
		if d.Kind == doctree.DiagBoxRepaired {
			log.Warn("box repaired", "chunk_id", d.ChunkID, "detail", d.Message)
		}
	}

	log.Info("transform complete",
		"pages", len(pages),
		"mapped_chunks", mapped,
		"grouped_chunks", grouped,
		"final_chunks", len(doc.Chunks),
		"diagnostics", len(doc.Diagnostics),
	)
	return doc, nil
}

// isoTimestamp renders UTC time with microseconds and a trailing Z.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format(isoMicros) + "Z"
}
