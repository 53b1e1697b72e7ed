package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloc/internal/domain"
)

type fakeProvider struct {
	calls      int
	normalized []bool
	prepared   []string
	dropOne    bool
	err        error
}

func (f *fakeProvider) Name() string   { return "fake" }
func (f *fakeProvider) Dimension() int { return 2 }

func (f *fakeProvider) Prepare(corpus []string) error {
	f.prepared = corpus
	return nil
}

func (f *fakeProvider) Encode(_ context.Context, texts []string, normalize bool) ([][]float32, error) {
	f.calls++
	f.normalized = append(f.normalized, normalize)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	if f.dropOne {
		out = out[1:]
	}
	return out, nil
}

func TestEncoder_NormalizationFollowsMetric(t *testing.T) {
	p := &fakeProvider{}
	enc := NewEncoder(p, domain.MetricInnerProduct)
	assert.True(t, enc.Normalize())

	_, err := enc.EncodeCorpus(context.Background(), []string{"a", "bb"}, nil)
	require.NoError(t, err)
	_, err = enc.EncodeQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, p.normalized)

	p2 := &fakeProvider{}
	enc2 := NewEncoder(p2, domain.MetricL2)
	assert.False(t, enc2.Normalize())
	_, err = enc2.EncodeQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, p2.normalized)
}

func TestEncoder_EncodeCorpusBatches(t *testing.T) {
	p := &fakeProvider{}
	enc := NewEncoder(p, domain.MetricL2, WithBatchSize(2))

	var progress [][2]int
	vecs, err := enc.EncodeCorpus(context.Background(), []string{"a", "bb", "ccc", "dddd", "e"}, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	assert.Equal(t, float32(3), vecs[2][0])
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progress)
}

func TestEncoder_Errors(t *testing.T) {
	enc := NewEncoder(&fakeProvider{dropOne: true}, domain.MetricL2)
	_, err := enc.EncodeCorpus(context.Background(), []string{"a", "b"}, nil)
	assert.ErrorIs(t, err, domain.ErrProviderMismatch)

	boom := errors.New("boom")
	enc = NewEncoder(&fakeProvider{err: boom}, domain.MetricL2)
	_, err = enc.EncodeQuery(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestEncoder_Prepare(t *testing.T) {
	p := &fakeProvider{}
	enc := NewEncoder(p, domain.MetricL2)
	require.NoError(t, enc.Prepare([]string{"x", "y"}))
	assert.Equal(t, []string{"x", "y"}, p.prepared)
	assert.Equal(t, "fake", enc.ProviderName())
	assert.Equal(t, 2, enc.Dimension())
}

func TestUniformDimension(t *testing.T) {
	assert.NoError(t, uniformDimension(nil))
	assert.NoError(t, uniformDimension([][]float32{{1, 2}, {3, 4}}))
	assert.ErrorIs(t, uniformDimension([][]float32{{1, 2}, {3}}), domain.ErrDimensionMismatch)
}
