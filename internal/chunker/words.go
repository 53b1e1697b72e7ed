package chunker

import (
	"regexp"
	"strings"
)

// wordPattern matches letter/digit runs, keeping inner apostrophes (don't, it's).
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

var stopwords = toSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
	"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
	"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
	"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
	"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	"what", "which", "who", "how", "when", "where", "why", "do", "does", "did",
)

// Words returns the lowercased words of s in order.
func Words(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

// ContentWords is Words without English stopwords.
func ContentWords(s string) []string {
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// IsStopword reports whether the lowercased word w carries no topic.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// WordSet returns the distinct words of s.
func WordSet(s string) map[string]struct{} {
	words := Words(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
