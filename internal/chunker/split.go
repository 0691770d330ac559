package chunker

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

// SplitParagraph breaks text into parts of at most maxChars code points on
// sentence boundaries. Whitespace is collapsed first. Consecutive parts
// share overlap sentences, so the tail sentences are repeated as a final
// part. A sentence longer than maxChars becomes a part of its own. Empty
// input yields no parts.
func SplitParagraph(text string, maxChars, overlap int) []string {
	txt := textutil.CollapseSpace(text)
	if txt == "" {
		return nil
	}
	if textutil.Len(txt) <= maxChars {
		return []string{txt}
	}

	sents := splitSentences(txt)
	var parts []string
	for i := 0; i < len(sents); {
		total, j := 0, i
		for j < len(sents) && total+textutil.Len(sents[j])+1 <= maxChars {
			total += textutil.Len(sents[j]) + 1
			j++
		}
		if j == i {
			j = i + 1
		}
		parts = append(parts, strings.Join(sents[i:j], " "))
		i = max(i+1, j-overlap)
	}
	return parts
}

// splitSentences splits whitespace-collapsed text after '.', '!' or '?'.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	var prev rune
	for i, r := range text {
		if r == ' ' && (prev == '.' || prev == '!' || prev == '?') {
			sentences = append(sentences, text[start:i])
			start = i + 1
		}
		prev = r
	}
	return append(sentences, text[start:])
}
