// Package pagedims supplies the pixel dimensions of rendered pages, used to
// normalize element boxes.
package pagedims

import (
	"errors"
	"fmt"
	"io"
	"os"

	pdflib "github.com/ledongthuc/pdf"
)

// DefaultDPI is the rendering resolution assumed when converting PDF points.
const DefaultDPI = 200

// ErrUnknownPage is returned when no dimensions are known for a page.
var ErrUnknownPage = errors.New("page dimensions unknown")

// Provider returns the width and height in pixels of a 1-based page.
type Provider func(page int) (width, height float64, err error)

// Static returns the same dimensions for every page.
func Static(width, height float64) Provider {
	return func(int) (float64, float64, error) {
		return width, height, nil
	}
}

// PerPage looks dimensions up in a table keyed by page number.
func PerPage(dims map[int][2]float64) Provider {
	return func(page int) (float64, float64, error) {
		d, ok := dims[page]
		if !ok {
			return 0, 0, fmt.Errorf("page %d: %w", page, ErrUnknownPage)
		}
		return d[0], d[1], nil
	}
}

// FromPDF reads every page's MediaBox from a PDF and scales it from points
// to pixels at the given DPI.
func FromPDF(path string, dpi float64) (Provider, error) {
	dims, err := readPDF(path, dpi)
	if err != nil {
		return nil, err
	}
	return PerPage(dims), nil
}

// FromPDFReader is FromPDF over an uploaded document.
func FromPDFReader(r io.Reader, dpi float64) (Provider, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docchunk-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	return FromPDF(tmpPath, dpi)
}

func readPDF(path string, dpi float64) (map[int][2]float64, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	scale := dpi / 72
	dims := make(map[int][2]float64)
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		box := mediaBox(page.V)
		if box.IsNull() || box.Len() < 4 {
			continue
		}
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w <= 0 || h <= 0 {
			continue
		}
		dims[i] = [2]float64{w * scale, h * scale}
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("open pdf: no page has a usable MediaBox")
	}
	return dims, nil
}

// mediaBox walks up the page tree since MediaBox is inheritable.
func mediaBox(v pdflib.Value) pdflib.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if mb := v.Key("MediaBox"); !mb.IsNull() {
			return mb
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}
