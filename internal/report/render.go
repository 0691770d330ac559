package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Heading is one markdown heading.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline lists the headings of a markdown document.
type Outline struct {
	Headings []Heading   `json:"headings"`
	Counts   map[int]int `json:"counts"`
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Build analyzes pages and the document produced from them.
func Build(docID string, pages []doctree.Page, doc *doctree.Document, now time.Time) *Report {
	r := &Report{
		DocID:     docID,
		Generated: now,
		Elements:  AnalyzeElements(pages),
		Chunks:    AnalyzeChunks(doc),
		Outline:   OutlineOf(doc.Markdown),
	}
	r.Ratio = ElementToChunkRatio(r.Elements, r.Chunks)
	return r
}

// OutlineOf walks the markdown AST and collects top-level headings.
func OutlineOf(markdown string) Outline {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	o := Outline{Headings: []Heading{}, Counts: make(map[int]int)}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		o.Headings = append(o.Headings, Heading{Level: h.Level, Text: inlineText(h, src)})
		o.Counts[h.Level]++
	}
	return o
}

// HTML renders markdown, GFM tables included.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// inlineText gets the text content of a goldmark AST node.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			// Recurse for nested inlines.
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
