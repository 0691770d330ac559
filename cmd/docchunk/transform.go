package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/pagedims"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/transform"
)

// transformFlags are shared by every command that runs a transform.
type transformFlags struct {
	docID        string
	pdfPath      string
	pageWidth    float64
	pageHeight   float64
	dpi          float64
	paraMaxChars int
	rowBlockSize int
	exclude      []string
	strict       bool
	noOptimize   bool
	noFuse       bool
	reclassify   bool
	workers      int
}

func (f *transformFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.docID, "doc-id", "", "document id (default: input file name without extension)")
	fs.StringVar(&f.pdfPath, "pdf", "", "source PDF used for page sizes")
	fs.Float64Var(&f.pageWidth, "page-width", 0, "page width in pixels for every page")
	fs.Float64Var(&f.pageHeight, "page-height", 0, "page height in pixels for every page")
	fs.Float64Var(&f.dpi, "dpi", 0, "render resolution of the page images when using --pdf (default from config)")
	fs.IntVar(&f.paraMaxChars, "para-max-chars", 0, "split paragraphs longer than this (default from config)")
	fs.IntVar(&f.rowBlockSize, "row-block-size", 0, "emit table_row chunks of this many rows (max 3)")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "labels to drop (default from config)")
	fs.BoolVar(&f.strict, "strict", false, "reject tables only the fallback parser can read")
	fs.BoolVar(&f.noOptimize, "no-optimize", false, "skip the RAG optimisation pass")
	fs.BoolVar(&f.noFuse, "no-fuse", false, "do not fuse figures with their captions")
	fs.BoolVar(&f.reclassify, "reclassify", false, "re-derive text chunk types during optimisation")
	fs.IntVar(&f.workers, "workers", 0, "parallel page workers (default GOMAXPROCS)")
}

// options layers the flags the user set over the configured defaults.
func (f *transformFlags) options(cmd *cobra.Command, inputPath string) (transform.Options, error) {
	opts := cfg.Transform.Options()
	fs := cmd.Flags()

	opts.DocID = f.docID
	if opts.DocID == "" && inputPath != "-" {
		base := filepath.Base(inputPath)
		opts.DocID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if fs.Changed("para-max-chars") {
		opts.ParaMaxChars = f.paraMaxChars
	}
	if fs.Changed("row-block-size") {
		opts.TableRowBlockSize = nil
		if f.rowBlockSize > 0 {
			size := f.rowBlockSize
			opts.TableRowBlockSize = &size
		}
	}
	if fs.Changed("exclude") {
		opts.ExcludeLabels = append([]string{}, f.exclude...)
	}
	if fs.Changed("strict") {
		opts.StrictMode = f.strict
	}
	if f.noOptimize {
		opts.OptimizeForRAG = false
	}
	if f.noFuse {
		opts.FuseFigureAndCaption = false
	}
	if fs.Changed("reclassify") {
		opts.Reclassify = f.reclassify
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}

	dims, err := f.pageDims()
	if err != nil {
		return opts, err
	}
	opts.PageDims = dims
	opts.Logger = logger.With("doc_id", opts.DocID)
	return opts, nil
}

func (f *transformFlags) pageDims() (pagedims.Provider, error) {
	switch {
	case f.pdfPath != "":
		dpi := f.dpi
		if dpi <= 0 {
			dpi = cfg.PDFDPI
		}
		return pagedims.FromPDF(f.pdfPath, dpi)
	case f.pageWidth > 0 || f.pageHeight > 0:
		if f.pageWidth <= 0 || f.pageHeight <= 0 {
			return nil, fmt.Errorf("--page-width and --page-height must be set together")
		}
		return pagedims.Static(f.pageWidth, f.pageHeight), nil
	default:
		return cfg.PageDims(), nil
	}
}

// run decodes the input file and maps it to a document.
func (f *transformFlags) run(cmd *cobra.Command, inputPath string) ([]doctree.Page, *doctree.Document, error) {
	data, err := readInput(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	pages, err := parser.DecodeBytes(data)
	if err != nil {
		return nil, nil, err
	}
	opts, err := f.options(cmd, inputPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.PageDims == nil {
		logger.Warn("no page dimensions; boxes will be null")
	}
	doc, err := transform.New(opts).Transform(cmd.Context(), pages)
	if err != nil {
		return nil, nil, err
	}
	return pages, doc, nil
}

var (
	transformOpts     transformFlags
	transformOut      string
	transformMarkdown string
)

var transformCmd = &cobra.Command{
	Use:   "transform <input.json|->",
	Short: "Convert recognizer output into a chunk corpus",
	Long: `Convert recognizer output into a chunk corpus.

The input is either {"pages": [...]}, a list of pages, or a bare list of
elements (treated as page 1). Boxes are normalized when page sizes are
known from --pdf, --page-width/--page-height or the config file.

Examples:
  docchunk transform scan.json -O scan.chunks.json
  docchunk transform scan.json --pdf scan.pdf --row-block-size 2
  cat scan.json | docchunk transform - --doc-id report`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, doc, err := transformOpts.run(cmd, args[0])
		if err != nil {
			return err
		}
		for _, d := range doc.Diagnostics {
			logger.Debug("diagnostic", "kind", d.Kind, "page", d.Page, "reading_order", d.ReadingOrder, "message", d.Message)
		}

		out, err := openOutput(cmd, transformOut)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := writeOutput(out, outputFormat, doc); err != nil {
			return err
		}

		if transformMarkdown != "" {
			if err := os.WriteFile(transformMarkdown, []byte(doc.Markdown+"\n"), 0o644); err != nil {
				return fmt.Errorf("write markdown: %w", err)
			}
		}
		logger.Info("transform complete",
			"doc_id", doc.DocID,
			"pages", doc.PageCount,
			"chunks", len(doc.Chunks),
			"diagnostics", len(doc.Diagnostics),
		)
		return nil
	},
}

func init() {
	transformOpts.register(transformCmd.Flags())
	transformCmd.Flags().StringVarP(&transformOut, "out", "O", "", "output file (default stdout)")
	transformCmd.Flags().StringVar(&transformMarkdown, "markdown", "", "also write the document markdown to this file")
}
