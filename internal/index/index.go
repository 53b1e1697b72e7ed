// Package index defines the build-once nearest-neighbor index used for
// retrieval. Backends live in subpackages; callers depend only on Builder
// and Index.
package index

import (
	"context"
	"fmt"
	"sort"

	"ragloc/internal/domain"
)

// Index is an immutable nearest-neighbor structure over a fixed set of
// vectors. Hits refer to vectors by their position at build time.
type Index interface {
	Len() int
	Dimension() int
	Metric() domain.Metric
	// Search returns at most k hits, best first under Metric. An empty
	// index returns no hits and no error.
	Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error)
}

// Builder creates an Index from an ordered set of vectors. Building from
// zero vectors is allowed and yields an index that never returns hits.
type Builder interface {
	Name() string
	Build(ctx context.Context, vectors [][]float32) (Index, error)
}

// Dimension checks that vectors share one dimension and returns it (0 for
// an empty set).
func Dimension(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 is empty: %w", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has dimension %d, expected %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return dim, nil
}

// ClampK validates k and limits it to n.
func ClampK(k, n int) (int, error) {
	if k <= 0 {
		return 0, domain.ErrInvalidK
	}
	return min(k, n), nil
}

// CheckQuery validates a query vector against an index dimension.
func CheckQuery(query []float32, dim int) error {
	if len(query) != dim {
		return fmt.Errorf("query has dimension %d, index has %d: %w", len(query), dim, domain.ErrDimensionMismatch)
	}
	return nil
}

// SortHits orders hits best first under metric. Ties keep the lower position first.
func SortHits(hits []domain.Hit, metric domain.Metric) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Position < hits[j].Position
		}
		return metric.Better(hits[i].Score, hits[j].Score)
	})
}
