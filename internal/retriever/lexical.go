package retriever

import (
	"math"

	"ragloc/internal/chunker"
	"ragloc/internal/domain"
	"ragloc/internal/index"
)

// lexical ranks chunks by Ochiai token overlap. Scores follow the index
// metric direction: similarity for inner product, 1 - similarity otherwise.
func (r *Retriever) lexical(query string, k int) []domain.SearchResult {
	metric := domain.MetricInnerProduct
	if r.index != nil {
		metric = r.index.Metric()
	}
	qset := chunker.WordSet(query)
	hits := make([]domain.Hit, len(r.chunks))
	for i, ch := range r.chunks {
		s := overlapOchiai(qset, ch.Text)
		if !metric.HigherIsBetter() {
			s = 1 - s
		}
		hits[i] = domain.Hit{Position: i, Score: s}
	}
	index.SortHits(hits, metric)
	k = min(k, len(hits))
	out := make([]domain.SearchResult, 0, k)
	for _, h := range hits[:k] {
		out = append(out, domain.SearchResult{Chunk: r.chunks[h.Position], Score: h.Score})
	}
	return out
}

// overlapOchiai returns |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := chunker.WordSet(text)
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
