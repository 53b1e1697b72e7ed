package flat

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloc/internal/domain"
	"ragloc/internal/vecmath"
)

var allMetrics = []domain.Metric{domain.MetricInnerProduct, domain.MetricL2, domain.MetricCosine}

func randomVectors(r *rand.Rand, n, dim int, normalize bool) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		if normalize {
			vecmath.Normalize(v)
		}
		out[i] = v
	}
	return out
}

func TestSearch_ReturnsKDistinctValidPositions(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	ctx := context.Background()
	for _, m := range allMetrics {
		vecs := randomVectors(r, 20, 8, m.RequiresNormalized())
		idx, err := NewBuilder(m).Build(ctx, vecs)
		require.NoError(t, err)
		assert.Equal(t, 20, idx.Len())
		assert.Equal(t, 8, idx.Dimension())
		assert.Equal(t, m, idx.Metric())

		for k := 1; k <= 20; k++ {
			q := randomVectors(r, 1, 8, m.RequiresNormalized())[0]
			hits, err := idx.Search(ctx, q, k)
			require.NoError(t, err)
			require.Len(t, hits, k)
			seen := map[int]bool{}
			for i, h := range hits {
				assert.GreaterOrEqual(t, h.Position, 0)
				assert.Less(t, h.Position, 20)
				assert.False(t, seen[h.Position], "duplicate position %d", h.Position)
				seen[h.Position] = true
				if i > 0 {
					assert.False(t, m.Better(h.Score, hits[i-1].Score), "metric %s out of order", m)
				}
			}
		}
	}
}

func TestSearch_ScoreDirection(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float32{{1, 0}, {0, 1}, {0.8, 0.6}}

	ip, err := NewBuilder(domain.MetricInnerProduct).Build(ctx, vecs)
	require.NoError(t, err)
	hits, err := ip.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}

	l2, err := NewBuilder(domain.MetricL2).Build(ctx, vecs)
	require.NoError(t, err)
	hits, err = l2.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 0.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.4, hits[1].Score, 1e-6)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i].Score, hits[i-1].Score)
	}

	cos, err := NewBuilder(domain.MetricCosine).Build(ctx, [][]float32{{10, 0}, {0, 3}})
	require.NoError(t, err)
	hits, err = cos.Search(ctx, []float32{2, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 0.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 1.0, hits[1].Score, 1e-9)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := NewBuilder(domain.MetricL2).Build(ctx, [][]float32{{1}, {2}, {3}})
	require.NoError(t, err)
	hits, err := idx.Search(ctx, []float32{0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearch_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := NewBuilder(domain.MetricInnerProduct).Build(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	for _, k := range []int{1, 3, 100} {
		hits, err := idx.Search(ctx, []float32{1, 2, 3}, k)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestSearch_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := NewBuilder(domain.MetricL2).Build(ctx, [][]float32{{1, 2}, {1}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	idx, err := NewBuilder(domain.MetricL2).Build(ctx, [][]float32{{1, 2}})
	require.NoError(t, err)
	_, err = idx.Search(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	_, err = idx.Search(ctx, []float32{1, 2}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidK)
}

func TestBuild_CopiesVectors(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float32{{1, 0}, {0, 1}}
	idx, err := NewBuilder(domain.MetricInnerProduct).Build(ctx, vecs)
	require.NoError(t, err)
	vecs[0][0] = -1

	hits, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}
