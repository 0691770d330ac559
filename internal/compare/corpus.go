// Package compare scores a produced chunk corpus against a reference
// ("ideal") corpus. It is diagnostic tooling and never feeds back into a
// transform.
package compare

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// fieldSampleSize is how many leading chunks contribute field keys.
const fieldSampleSize = 5

// ChunkView is the part of a chunk the comparisons read.
type ChunkView struct {
	ChunkType string
	TextLen   int
	Page      int
	HasBox    bool
	Box       *doctree.Box // nil unless the box is an {l,t,r,b} object
}

// Corpus is a loosely-typed view of a chunk file. Field keys are observed
// from the data so corpora produced elsewhere compare fairly.
type Corpus struct {
	Fields   []string // sorted keys seen in the first chunks
	Chunks   []ChunkView
	Elements int // recognizer elements, for page-shaped inputs
}

// Count is the number of chunks, or of recognizer elements when the input
// held pages instead of chunks.
func (c *Corpus) Count() int {
	if len(c.Chunks) > 0 {
		return len(c.Chunks)
	}
	return c.Elements
}

// BoxCount counts chunks whose first grounding carries a box.
func (c *Corpus) BoxCount() int {
	n := 0
	for _, ch := range c.Chunks {
		if ch.HasBox {
			n++
		}
	}
	return n
}

// AvgLength is the mean chunk text length in code points.
func (c *Corpus) AvgLength() float64 {
	if len(c.Chunks) == 0 {
		return 0
	}
	total := 0
	for _, ch := range c.Chunks {
		total += ch.TextLen
	}
	return float64(total) / float64(len(c.Chunks))
}

// Types returns the set of chunk types present.
func (c *Corpus) Types() map[string]bool {
	set := make(map[string]bool)
	for _, ch := range c.Chunks {
		set[ch.ChunkType] = true
	}
	return set
}

type rawGrounding struct {
	Page int             `json:"page"`
	Box  json.RawMessage `json:"box"`
}

type rawCorpus struct {
	Chunks []map[string]json.RawMessage `json:"chunks"`
	Pages  []struct {
		Elements []json.RawMessage `json:"elements"`
	} `json:"pages"`
}

// LoadCorpus reads a document JSON with a "chunks" array. Recognizer
// output with a "pages" array is accepted too; only its element count is
// used.
func LoadCorpus(r io.Reader) (*Corpus, error) {
	var raw rawCorpus
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	c := &Corpus{}
	for _, p := range raw.Pages {
		c.Elements += len(p.Elements)
	}

	fields := make(map[string]bool)
	for i, m := range raw.Chunks {
		if i < fieldSampleSize {
			for k := range m {
				fields[k] = true
			}
		}
		c.Chunks = append(c.Chunks, viewOf(m))
	}
	c.Fields = sortedKeys(fields)
	return c, nil
}

// FromDocument builds a Corpus from a transform result.
func FromDocument(doc *doctree.Document) *Corpus {
	c := &Corpus{}
	fields := make(map[string]bool)
	for i := range doc.Chunks {
		ch := &doc.Chunks[i]
		if i < fieldSampleSize {
			// Marshal to observe exactly the keys that would be written.
			if data, err := json.Marshal(ch); err == nil {
				var m map[string]json.RawMessage
				if json.Unmarshal(data, &m) == nil {
					for k := range m {
						fields[k] = true
					}
				}
			}
		}
		v := ChunkView{
			ChunkType: string(ch.ChunkType),
			TextLen:   textutil.Len(ch.Text),
			Page:      ch.Page(),
		}
		if b := ch.Box(); b != nil {
			bc := *b
			v.HasBox, v.Box = true, &bc
		}
		c.Chunks = append(c.Chunks, v)
	}
	c.Fields = sortedKeys(fields)
	return c
}

func viewOf(m map[string]json.RawMessage) ChunkView {
	v := ChunkView{ChunkType: "unknown"}
	if raw, ok := m["chunk_type"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			v.ChunkType = s
		}
	}
	if raw, ok := m["text"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			v.TextLen = textutil.Len(s)
		}
	}
	if raw, ok := m["grounding"]; ok {
		var gs []rawGrounding
		if json.Unmarshal(raw, &gs) == nil && len(gs) > 0 {
			v.Page = gs[0].Page
			v.HasBox, v.Box = decodeBox(gs[0].Box)
		}
	}
	return v
}

// decodeBox reports whether a box is present and, for the normalized
// object form, returns it.
func decodeBox(raw json.RawMessage) (bool, *doctree.Box) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var obj map[string]float64
	if json.Unmarshal(raw, &obj) == nil {
		if len(obj) == 0 {
			return false, nil
		}
		return true, &doctree.Box{L: obj["l"], T: obj["t"], R: obj["r"], B: obj["b"]}
	}
	var list []float64
	if json.Unmarshal(raw, &list) == nil {
		return len(list) > 0, nil
	}
	return false, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
