// Package flat is the exact brute-force index backend. Every query is
// scored against every stored vector.
package flat

import (
	"context"

	"ragloc/internal/domain"
	"ragloc/internal/index"
	"ragloc/internal/vecmath"
)

// Builder builds exact indexes for one metric.
type Builder struct {
	metric domain.Metric
}

func NewBuilder(metric domain.Metric) *Builder { return &Builder{metric: metric} }

func (b *Builder) Name() string { return "flat" }

// Build copies vectors into a new exact index.
func (b *Builder) Build(_ context.Context, vectors [][]float32) (index.Index, error) {
	dim, err := index.Dimension(vectors)
	if err != nil {
		return nil, err
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		stored[i] = append([]float32(nil), v...)
	}
	return &Index{metric: b.metric, dimension: dim, vectors: stored}, nil
}

// Index is an exact in-memory index. It is read-only after Build.
type Index struct {
	metric    domain.Metric
	dimension int
	vectors   [][]float32
}

func (x *Index) Len() int              { return len(x.vectors) }
func (x *Index) Dimension() int        { return x.dimension }
func (x *Index) Metric() domain.Metric { return x.metric }

func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	k, err := index.ClampK(k, len(x.vectors))
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return nil, nil
	}
	if err := index.CheckQuery(query, x.dimension); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = domain.Hit{Position: i, Score: x.score(v, query)}
	}
	index.SortHits(hits, x.metric)
	return hits[:k], nil
}

func (x *Index) score(v, q []float32) float64 {
	switch x.metric {
	case domain.MetricL2:
		return vecmath.SquaredL2(v, q)
	case domain.MetricCosine:
		return vecmath.CosineDistance(v, q)
	default:
		return vecmath.Dot(v, q)
	}
}
