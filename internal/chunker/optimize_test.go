package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLong(t *testing.T) {
	text := strings.Join(testSentences(10), " ")
	box := &doctree.Box{L: 0.1, T: 0.1, R: 0.9, B: 0.9}
	in := []doctree.Chunk{
		mkChunk("d:001:1-1:0", doctree.TypeText, text, 1, 1, box),
		mkChunk("d:001:2-2:0", doctree.TypeTable, text, 1, 2, box),
	}
	out := SplitLong(in, 100)

	require.Len(t, out, 5)
	for n := range 4 {
		c := out[n]
		assert.Equal(t, "d:001:1-1:0_split_"+string(rune('0'+n)), c.ChunkID)
		require.NotNil(t, c.Metadata.PartIndex)
		assert.Equal(t, n, *c.Metadata.PartIndex)
		assert.Equal(t, *box, *c.Box())
	}
	assert.Equal(t, "d:001:2-2:0", out[4].ChunkID)
	assert.Equal(t, text, out[4].Text)
}

func TestClassify(t *testing.T) {
	mid := &doctree.Box{L: 0.2, T: 0.4, R: 0.8, B: 0.5}
	tests := []struct {
		name string
		text string
		box  *doctree.Box
		want doctree.ChunkType
	}{
		{"left margin", "note", &doctree.Box{L: 0.01, T: 0.4, R: 0.1, B: 0.5}, doctree.TypeMarginalia},
		{"top margin", "running head", &doctree.Box{L: 0.2, T: 0.01, R: 0.8, B: 0.05}, doctree.TypeMarginalia},
		{"top area short", "Chapter heading", &doctree.Box{L: 0.2, T: 0.12, R: 0.8, B: 0.2}, doctree.TypeHeader},
		{"bottom area short", "page 3", &doctree.Box{L: 0.2, T: 0.87, R: 0.8, B: 0.89}, doctree.TypeMarginalia},
		{"figure lead", "Figure 3 shows the results", mid, doctree.TypeCaption},
		{"table lead", "Tab. 2", nil, doctree.TypeText},
		{"table number", "table 2: totals by year", mid, doctree.TypeCaption},
		{"all caps", "RESULTS", mid, doctree.TypeHeader},
		{"colon", "Price: 5 euros", mid, doctree.TypeHeader},
		{"plain", "an ordinary sentence in the body of the page", mid, doctree.TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.box))
		})
	}
}

func TestReclassify_KeepsStructuralTypes(t *testing.T) {
	top := &doctree.Box{L: 0.2, T: 0.12, R: 0.8, B: 0.2}
	in := []doctree.Chunk{
		mkChunk("a", doctree.TypeTitle, "Big Title", 1, 1, top),
		mkChunk("b", doctree.TypeText, "Short top text", 1, 2, top),
	}
	out := Reclassify(in)
	assert.Equal(t, doctree.TypeTitle, out[0].ChunkType)
	assert.Equal(t, doctree.TypeHeader, out[1].ChunkType)
	assert.Equal(t, doctree.TypeText, in[1].ChunkType)
}

func TestLengths(t *testing.T) {
	in := []doctree.Chunk{
		mkChunk("a", doctree.TypeText, "aa", 1, 1, nil),
		mkChunk("b", doctree.TypeText, "aaaa", 1, 2, nil),
		mkChunk("c", doctree.TypeText, "aaaaaa", 1, 3, nil),
		mkChunk("d", doctree.TypeText, "aaaaaaaaaaaaaaaa", 1, 4, nil),
	}
	s := Lengths(in)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.Min)
	assert.Equal(t, 16, s.Max)
	assert.InDelta(t, 7.0, s.Avg, 1e-9)
	assert.InDelta(t, 5.0, s.Median, 1e-9)
	assert.Equal(t, LengthStats{}, Lengths(nil))
}

func TestOptimize_GroupsThenSplits(t *testing.T) {
	in := []doctree.Chunk{
		mkChunk("a", doctree.TypeText, "Alpha.", 1, 1, &doctree.Box{L: 0.1, T: 0.3, R: 0.4, B: 0.32}),
		mkChunk("b", doctree.TypeText, "Beta.", 1, 2, &doctree.Box{L: 0.5, T: 0.3, R: 0.9, B: 0.32}),
	}
	out := Optimize(in, DefaultOptimizeConfig())
	require.Len(t, out, 1)
	assert.Equal(t, "Alpha. Beta.", out[0].Text)
}
