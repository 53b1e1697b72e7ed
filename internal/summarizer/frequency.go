// Package summarizer builds the short corpus overview printed after ingest.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"ragloc/internal/chunker"
)

const defaultMaxSentences = 5

// FrequencySummarizer is an extractive summarizer: it keeps the sentences
// whose content words recur most across the whole text.
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer { return &FrequencySummarizer{} }

// Summarize returns at most maxSentences sentences of text in reading order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	sentences := chunker.SplitSentences(text)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " "), nil
	}

	words := make([][]string, len(sentences))
	counts := make(map[string]int)
	peak := 0
	for i, sent := range sentences {
		words[i] = chunker.ContentWords(sent)
		for _, w := range words[i] {
			counts[w]++
			peak = max(peak, counts[w])
		}
	}

	scores := make([]float64, len(sentences))
	order := make([]int, len(sentences))
	for i, ws := range words {
		order[i] = i
		if len(ws) == 0 {
			continue
		}
		var sum float64
		for _, w := range ws {
			sum += float64(counts[w]) / float64(peak)
		}
		// dampen length so one long sentence does not win on word count alone
		scores[i] = sum / math.Sqrt(float64(len(ws)))
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	keep := order[:maxSentences]
	sort.Ints(keep)
	picked := make([]string, len(keep))
	for i, idx := range keep {
		picked[i] = sentences[idx]
	}
	return strings.Join(picked, " "), nil
}
