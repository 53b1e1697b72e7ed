package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"ragloc/internal/domain"
)

const (
	StrategySentence = "sentence"
	StrategyPeriod   = "period"
)

// sentenceBoundary matches end-of-sentence punctuation followed by whitespace.
// The punctuation stays with the preceding sentence.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SentenceChunker splits text into sentence-based chunks with optional grouping and overlap.
type SentenceChunker struct {
	strategy          string
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(strategy string, sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if strategy == "" {
		strategy = StrategySentence
	}
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 1
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// overlap must leave room for progress
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		strategy:          strategy,
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Chunk splits one document. Chunk indexes are local to the document.
func (c *SentenceChunker) Chunk(document domain.Document) []domain.Chunk {
	var sentences []string
	if c.strategy == StrategyPeriod {
		sentences = SplitPeriods(document.Content)
	} else {
		sentences = SplitSentences(document.Content)
	}
	if len(sentences) == 0 {
		return nil
	}
	var chunks []domain.Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Text:       strings.Join(sentences[i:end], " "),
			Index:      idx,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks
}

// ChunkDocuments chunks documents in order and numbers the resulting chunks
// by their position in the combined sequence.
func (c *SentenceChunker) ChunkDocuments(documents []domain.Document) []domain.Chunk {
	var all []domain.Chunk
	for _, d := range documents {
		for _, ch := range c.Chunk(d) {
			ch.Index = len(all)
			all = append(all, ch)
		}
	}
	return all
}

// SplitSentences cuts text after '.', '!' or '?' when followed by whitespace.
// Segments are trimmed and empty segments dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		out = appendTrimmed(out, text[start:m[0]+1])
		start = m[1]
	}
	return appendTrimmed(out, text[start:])
}

// SplitPeriods is the naive splitter: cut on ". " only.
func SplitPeriods(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ". ") {
		out = appendTrimmed(out, s)
	}
	return out
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}
