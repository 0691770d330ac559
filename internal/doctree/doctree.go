package doctree

import "slices"

// PageElement is one labelled region produced by the layout recognizer.
type PageElement struct {
	Label        string    `json:"label"`
	Text         string    `json:"text"`
	BBox         []float64 `json:"bbox"`          // Absolute pixels [x1,y1,x2,y2], may be nil
	ReadingOrder int       `json:"reading_order"` // Page-local ordering
	FigurePath   string    `json:"figure_path,omitempty"`
}

// Page groups the elements recognized on one page.
type Page struct {
	PageNumber int           `json:"page_number"` // 1-based
	Elements   []PageElement `json:"elements"`
}

// Box is a bounding box in page-relative [0,1] coordinates.
type Box struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`
}

// Grounding ties a chunk back to a page region. A nil Box means ungrounded.
type Grounding struct {
	Page int  `json:"page"`
	Box  *Box `json:"box"`
}

// ChunkType classifies a chunk for downstream indexing.
type ChunkType string

const (
	TypeTitle      ChunkType = "title"
	TypeSection    ChunkType = "section"
	TypeSubsection ChunkType = "subsection"
	TypeText       ChunkType = "text"
	TypeTable      ChunkType = "table"
	TypeTableRow   ChunkType = "table_row"
	TypeFigure     ChunkType = "figure"
	TypeCaption    ChunkType = "caption"
	TypeMarginalia ChunkType = "marginalia"
	TypeHeader     ChunkType = "header"
)

// ChunkMetadata holds the per-chunk annotations. Optional fields are
// omitted from JSON when unset.
type ChunkMetadata struct {
	Labels             []string `json:"labels"`
	ReadingOrderRange  [2]int   `json:"reading_order_range"`
	PartIndex          *int     `json:"part_index,omitempty"`
	QualityScore       *float64 `json:"quality_score,omitempty"`
	TableFormat        string   `json:"table_format,omitempty"`
	Headers            []string `json:"headers,omitempty"`
	NRows              *int     `json:"n_rows,omitempty"`
	ParentTableChunkID string   `json:"parent_table_chunk_id,omitempty"`
	RowIndexRange      *[2]int  `json:"row_index_range,omitempty"`
	CombinedChunks     int      `json:"combined_chunks,omitempty"`
	FigurePath         string   `json:"figure_path,omitempty"`
}

// Chunk is the unit of the output corpus.
type Chunk struct {
	ChunkID   string        `json:"chunk_id"`
	ChunkType ChunkType     `json:"chunk_type"`
	Text      string        `json:"text"`
	Grounding []Grounding   `json:"grounding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// Page returns the page of the first grounding entry, or 0.
func (c *Chunk) Page() int {
	if len(c.Grounding) == 0 {
		return 0
	}
	return c.Grounding[0].Page
}

// Box returns the first grounding box, or nil if ungrounded.
func (c *Chunk) Box() *Box {
	if len(c.Grounding) == 0 {
		return nil
	}
	return c.Grounding[0].Box
}

// Quality returns the quality score, or fallback if unset.
func (c *Chunk) Quality(fallback float64) float64 {
	if c.Metadata.QualityScore == nil {
		return fallback
	}
	return *c.Metadata.QualityScore
}

// Combined returns how many original chunks this chunk represents.
func (c *Chunk) Combined() int {
	if c.Metadata.CombinedChunks <= 0 {
		return 1
	}
	return c.Metadata.CombinedChunks
}

// Clone returns a deep copy so passes never alias their input.
func (c Chunk) Clone() Chunk {
	out := c
	out.Grounding = make([]Grounding, len(c.Grounding))
	for i, g := range c.Grounding {
		out.Grounding[i] = Grounding{Page: g.Page}
		if g.Box != nil {
			b := *g.Box
			out.Grounding[i].Box = &b
		}
	}
	m := &out.Metadata
	m.Labels = slices.Clone(c.Metadata.Labels)
	m.Headers = slices.Clone(c.Metadata.Headers)
	if c.Metadata.PartIndex != nil {
		m.PartIndex = Ptr(*c.Metadata.PartIndex)
	}
	if c.Metadata.QualityScore != nil {
		m.QualityScore = Ptr(*c.Metadata.QualityScore)
	}
	if c.Metadata.NRows != nil {
		m.NRows = Ptr(*c.Metadata.NRows)
	}
	if c.Metadata.RowIndexRange != nil {
		m.RowIndexRange = Ptr(*c.Metadata.RowIndexRange)
	}
	return out
}

// CloneChunks deep-copies a chunk list.
func CloneChunks(chunks []Chunk) []Chunk {
	out := make([]Chunk, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].Clone()
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// DocMetadata is descriptive document metadata.
type DocMetadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Language string `json:"language"`
}

// ExtractionMetadata carries aggregate statistics attached after validation
// and, when enabled, the optimizer's bookkeeping.
type ExtractionMetadata struct {
	ChunkCount        int            `json:"chunk_count"`
	TotalTextLength   int            `json:"total_text_length"`
	AvgChunkLength    float64        `json:"avg_chunk_length"`
	MaxChunkLength    int            `json:"max_chunk_length"`
	MinChunkLength    int            `json:"min_chunk_length"`
	ChunkTypes        map[string]int `json:"chunk_types"`
	QualityIssues     int            `json:"quality_issues"`
	EstimatedTokens   int            `json:"estimated_tokens"`
	ValidationApplied bool           `json:"validation_applied"`

	OptimizationApplied   bool    `json:"optimization_applied,omitempty"`
	OptimizationTimestamp string  `json:"optimization_timestamp,omitempty"`
	OriginalChunkCount    int     `json:"original_chunk_count,omitempty"`
	OptimizedChunkCount   int     `json:"optimized_chunk_count,omitempty"`
	MedianChunkLength     float64 `json:"median_chunk_length,omitempty"`
	TargetAvgLength       int     `json:"target_avg_length,omitempty"`
}

// Document is the top-level output of a transform.
type Document struct {
	DocID              string             `json:"doc_id"`
	Source             string             `json:"source"`
	PageCount          int                `json:"page_count"`
	ExtractionDate     string             `json:"extraction_date"`
	Metadata           DocMetadata        `json:"metadata"`
	Chunks             []Chunk            `json:"chunks"`
	Markdown           string             `json:"markdown"`
	ExtractionMetadata ExtractionMetadata `json:"extraction_metadata"`

	// Diagnostics collected while building the document.
	Diagnostics []Diagnostic `json:"-"`
}

// DiagnosticKind names the category of a recoverable anomaly.
type DiagnosticKind string

const (
	DiagTableRejected    DiagnosticKind = "table_rejected"
	DiagTableTruncated   DiagnosticKind = "table_truncated"
	DiagRowBlockRejected DiagnosticKind = "row_block_rejected"
	DiagBoxFallback      DiagnosticKind = "box_fallback"
	DiagBoxRepaired      DiagnosticKind = "box_repaired"
)

// Diagnostic records a recoverable anomaly. Page and ReadingOrder are 0
// when not tied to an element.
type Diagnostic struct {
	Kind         DiagnosticKind `json:"kind"`
	Page         int            `json:"page,omitempty"`
	ReadingOrder int            `json:"reading_order,omitempty"`
	ChunkID      string         `json:"chunk_id,omitempty"`
	Message      string         `json:"message"`
}

// HasDiagnostic reports whether any diagnostic of the given kind was recorded.
func (d *Document) HasDiagnostic(kind DiagnosticKind) bool {
	for _, diag := range d.Diagnostics {
		if diag.Kind == kind {
			return true
		}
	}
	return false
}
