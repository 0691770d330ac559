package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldGroup_SameLine(t *testing.T) {
	a := mkChunk("a", doctree.TypeText, "Left column text", 1, 1, &doctree.Box{L: 0.1, T: 0.5, R: 0.4, B: 0.52})
	b := mkChunk("b", doctree.TypeText, "right column text", 1, 2, &doctree.Box{L: 0.45, T: 0.5, R: 0.8, B: 0.52})
	cfg := DefaultContextConfig()
	assert.True(t, ShouldGroup(&a, &b, cfg))

	far := mkChunk("c", doctree.TypeText, "far below", 1, 3, &doctree.Box{L: 0.1, T: 0.8, R: 0.4, B: 0.82})
	assert.False(t, ShouldGroup(&a, &far, cfg))

	unboxed := mkChunk("d", doctree.TypeText, "no box", 1, 3, nil)
	assert.False(t, ShouldGroup(&a, &unboxed, cfg))

	otherPage := mkChunk("e", doctree.TypeText, "page two", 2, 1, &doctree.Box{L: 0.45, T: 0.5, R: 0.8, B: 0.52})
	assert.False(t, ShouldGroup(&a, &otherPage, cfg))

	huge := mkChunk("f", doctree.TypeText, strings.Repeat("x", 790), 1, 2, &doctree.Box{L: 0.45, T: 0.5, R: 0.8, B: 0.52})
	assert.False(t, ShouldGroup(&a, &huge, cfg))

	ta := mkChunk("t1", doctree.TypeTable, "t", 1, 1, a.Box())
	tb := mkChunk("t2", doctree.TypeTable, "t", 1, 2, b.Box())
	assert.False(t, ShouldGroup(&ta, &tb, cfg))
}

func TestGroupContextual_MergesSameLine(t *testing.T) {
	a := mkChunk("a", doctree.TypeText, "Left column text", 1, 1, &doctree.Box{L: 0.1, T: 0.5, R: 0.4, B: 0.52})
	b := mkChunk("b", doctree.TypeText, "right column text", 1, 2, &doctree.Box{L: 0.45, T: 0.49, R: 0.8, B: 0.525})
	out := GroupContextual([]doctree.Chunk{a, b}, DefaultContextConfig())

	require.Len(t, out, 1)
	assert.Equal(t, "Left column text right column text", out[0].Text)
	assert.Equal(t, doctree.Box{L: 0.1, T: 0.49, R: 0.8, B: 0.525}, *out[0].Box())
	assert.Equal(t, [2]int{1, 2}, out[0].Metadata.ReadingOrderRange)
}

func TestGroupContextual_ChainsAndSorts(t *testing.T) {
	line := func(l float64) *doctree.Box { return &doctree.Box{L: l, T: 0.5, R: l + 0.1, B: 0.52} }
	in := []doctree.Chunk{
		mkChunk("c", doctree.TypeText, "three", 1, 3, line(0.5)),
		mkChunk("a", doctree.TypeText, "one", 1, 1, line(0.1)),
		mkChunk("b", doctree.TypeText, "two", 1, 2, line(0.3)),
	}
	out := GroupContextual(in, DefaultContextConfig())
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, "one two three", out[0].Text)
	assert.Equal(t, [2]int{1, 3}, out[0].Metadata.ReadingOrderRange)
}

func TestMergePair_TextJoining(t *testing.T) {
	box := &doctree.Box{L: 0.1, T: 0.1, R: 0.2, B: 0.2}
	tests := []struct {
		a, b, want string
	}{
		{"frag-", "ment continues", "fragment continues"},
		{"Done.", "Next", "Done. Next"},
		{"Really?", "Yes", "Really? Yes"},
		{"plain", "text", "plain text"},
		{"  padded ", " words  ", "padded words"},
	}
	for _, tt := range tests {
		got := MergePair(mkChunk("a", doctree.TypeText, tt.a, 1, 1, box), mkChunk("b", doctree.TypeText, tt.b, 1, 2, box))
		if got.Text != tt.want {
			t.Errorf("merge %q + %q: expected %q, got %q", tt.a, tt.b, tt.want, got.Text)
		}
	}
}

func TestMergePair_AveragesQuality(t *testing.T) {
	a := mkChunk("a", doctree.TypeText, "a", 1, 4, nil)
	a.Metadata.QualityScore = doctree.Ptr(0.4)
	b := mkChunk("b", doctree.TypeText, "b", 1, 2, nil)
	got := MergePair(a, b)
	require.NotNil(t, got.Metadata.QualityScore)
	assert.InDelta(t, 0.45, *got.Metadata.QualityScore, 1e-9)
	assert.Equal(t, [2]int{2, 4}, got.Metadata.ReadingOrderRange)
	assert.Nil(t, got.Box())
}

func TestGroupContextual_ChainsByProximity(t *testing.T) {
	box := func(top float64) *doctree.Box { return &doctree.Box{L: 0.1, T: top, R: 0.9, B: top + 0.01} }
	in := []doctree.Chunk{
		mkChunk("c", doctree.TypeText, "three", 1, 3, box(0.14)),
		mkChunk("a", doctree.TypeText, "one", 1, 1, box(0.10)),
		mkChunk("b", doctree.TypeText, "two", 1, 2, box(0.12)),
	}
	out := GroupContextual(in, DefaultContextConfig())
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, "one two three", out[0].Text)
}
