package pagedims

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	p := Static(1000, 2000)
	w, h, err := p(7)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, w)
	assert.Equal(t, 2000.0, h)
}

func TestPerPage(t *testing.T) {
	p := PerPage(map[int][2]float64{1: {800, 1100}})
	w, h, err := p(1)
	require.NoError(t, err)
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 1100.0, h)

	_, _, err = p(2)
	assert.True(t, errors.Is(err, ErrUnknownPage))
}

func TestFromPDF_MissingFile(t *testing.T) {
	_, err := FromPDF(filepath.Join(t.TempDir(), "missing.pdf"), DefaultDPI)
	assert.Error(t, err)
}

func TestFromPDFReader_NotAPDF(t *testing.T) {
	_, err := FromPDFReader(strings.NewReader("plain text, not a pdf"), DefaultDPI)
	assert.Error(t, err)
}
