package chunker

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

// EstimateTokens gives a rough token count for corpus statistics: about
// 1.33 tokens per word, and never less than one token per four code
// points, which keeps unspaced scripts from collapsing to a single word.
func EstimateTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	byWords := int(float64(len(strings.Fields(text))) * 1.33)
	byChars := textutil.Len(text) / 4
	return max(1, byWords, byChars)
}
