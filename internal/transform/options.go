package transform

import (
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/pagedims"
)

// Options configures a Transformer. Start from DefaultOptions: the boolean
// switches default to true there, which the zero value cannot express.
type Options struct {
	DocID string

	// PageDims supplies page sizes in pixels. When nil, or when it fails for
	// a page, that page's boxes are null.
	PageDims pagedims.Provider

	// ExcludeLabels are dropped before mapping. Compared case-insensitively.
	// A nil slice means the defaults; an empty slice excludes nothing.
	ExcludeLabels []string

	ParaMaxChars         int
	FuseFigureAndCaption bool

	// TableRowBlockSize enables table_row chunks when set. Blocks never hold
	// more than three rows.
	TableRowBlockSize *int

	// StrictMode rejects tables that only the regex fallback parser can read.
	StrictMode bool

	OptimizeForRAG bool
	// TargetAvgLength is recorded in the output metadata only.
	TargetAvgLength int
	MaxChunkLength  int
	// Reclassify re-derives text chunk types from position and content
	// during optimisation.
	Reclassify bool

	// Workers bounds per-page parallelism. Defaults to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
	Now     func() time.Time
}

// DefaultExcludeLabels are skipped unless the caller says otherwise.
var DefaultExcludeLabels = []string{"header", "foot"}

// DefaultOptions returns the transform defaults.
func DefaultOptions() Options {
	return Options{
		DocID:                "doc",
		ParaMaxChars:         1500,
		FuseFigureAndCaption: true,
		OptimizeForRAG:       true,
		TargetAvgLength:      300,
		MaxChunkLength:       1200,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DocID == "" {
		o.DocID = d.DocID
	}
	if o.ExcludeLabels == nil {
		o.ExcludeLabels = DefaultExcludeLabels
	}
	if o.ParaMaxChars <= 0 {
		o.ParaMaxChars = d.ParaMaxChars
	}
	if o.TargetAvgLength <= 0 {
		o.TargetAvgLength = d.TargetAvgLength
	}
	if o.MaxChunkLength <= 0 {
		o.MaxChunkLength = d.MaxChunkLength
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = true
	}
	return set
}
