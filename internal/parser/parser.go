// Package parser decodes layout-recognizer output into pages of elements.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"golang.org/x/text/unicode/norm"
)

// ErrUnrecognizedInput is returned when the payload matches none of the
// accepted shapes.
var ErrUnrecognizedInput = errors.New("unrecognized recognition result format")

// SupportedExtensions lists file extensions accepted by the CLI and upload
// endpoints.
var SupportedExtensions = map[string]bool{
	".json": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

type rawElement struct {
	Label        string          `json:"label"`
	Text         string          `json:"text"`
	BBox         json.RawMessage `json:"bbox"`
	ReadingOrder *int            `json:"reading_order"`
	FigurePath   string          `json:"figure_path"`
}

type rawPage struct {
	PageNumber *int         `json:"page_number"`
	Elements   []rawElement `json:"elements"`
}

// Decode reads one of three shapes:
//
//	{"pages": [{"page_number": 1, "elements": [...]}, ...]}
//	[{"page_number": 1, "elements": [...]}, ...]
//	[{"label": "para", ...}, ...]            (a single page 1)
//
// Anything else, an empty list included, yields ErrUnrecognizedInput.
// Text is normalized to NFC. Elements in each page are stably sorted by
// reading order.
func Decode(r io.Reader) ([]doctree.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte) ([]doctree.Page, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrUnrecognizedInput
	}

	var raw []rawPage
	switch data[0] {
	case '{':
		var wrapper struct {
			Pages *[]rawPage `json:"pages"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedInput, err)
		}
		if wrapper.Pages == nil {
			return nil, ErrUnrecognizedInput
		}
		raw = *wrapper.Pages

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedInput, err)
		}
		if len(items) == 0 {
			return nil, ErrUnrecognizedInput
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(items[0], &probe); err != nil {
			return nil, ErrUnrecognizedInput
		}
		if _, ok := probe["page_number"]; ok {
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnrecognizedInput, err)
			}
		} else {
			var elems []rawElement
			if err := json.Unmarshal(data, &elems); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnrecognizedInput, err)
			}
			raw = []rawPage{{Elements: elems}}
		}

	default:
		return nil, ErrUnrecognizedInput
	}

	pages := make([]doctree.Page, 0, len(raw))
	for _, rp := range raw {
		pages = append(pages, convertPage(rp))
	}
	return pages, nil
}

func convertPage(rp rawPage) doctree.Page {
	p := doctree.Page{PageNumber: 1}
	if rp.PageNumber != nil {
		p.PageNumber = *rp.PageNumber
	}
	p.Elements = make([]doctree.PageElement, 0, len(rp.Elements))
	for _, re := range rp.Elements {
		el := doctree.PageElement{
			Label:      re.Label,
			Text:       norm.NFC.String(re.Text),
			BBox:       decodeBBox(re.BBox),
			FigurePath: re.FigurePath,
		}
		if re.ReadingOrder != nil {
			el.ReadingOrder = *re.ReadingOrder
		}
		p.Elements = append(p.Elements, el)
	}
	slices.SortStableFunc(p.Elements, func(a, b doctree.PageElement) int {
		return a.ReadingOrder - b.ReadingOrder
	})
	return p
}

// decodeBBox accepts a numeric array and drops anything else; the
// normalizer decides whether the array is usable.
func decodeBBox(raw json.RawMessage) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
