package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloc/internal/answer"
	"ragloc/internal/chunker"
	"ragloc/internal/domain"
	"ragloc/internal/embedding"
	"ragloc/internal/embedding/tfidf"
	"ragloc/internal/index/flat"
	"ragloc/internal/summarizer"
)

type fakeGenerator struct {
	prompts []string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return " Blue. ", nil
}

func newService(gen domain.Generator) *RAGServiceImpl {
	metric := domain.MetricInnerProduct
	opts := []Option{
		WithSummarizer(summarizer.NewFrequencySummarizer(), 1),
		WithLexicalFallback(true),
	}
	if gen != nil {
		opts = append(opts, WithComposer(answer.NewComposer(gen, 100, nil)))
	}
	return NewRAGService(
		chunker.NewSentenceChunker(chunker.StrategySentence, 1, 0),
		embedding.NewEncoder(tfidf.NewEmbedder(), metric),
		flat.NewBuilder(metric),
		opts...,
	)
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	svc := newService(gen)

	var progress []int
	WithProgress(func(done, _ int) { progress = append(progress, done) })(svc)

	summary, err := svc.Ingest(ctx, []domain.Document{{ID: "d", Content: "The sky is blue. Grass is green. Water is wet."}})
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	assert.Equal(t, []int{3}, progress)

	st := svc.Stats()
	assert.Equal(t, 3, st.Chunks)
	assert.Equal(t, "flat", st.Backend)
	assert.Equal(t, "tfidf", st.Embedder)
	assert.Equal(t, domain.MetricInnerProduct, st.Metric)

	res, err := svc.Query(ctx, "What color is the sky?", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "The sky is blue.", res[0].Chunk.Text)

	require.True(t, svc.GenerationEnabled())
	ans, err := svc.Answer(ctx, "What color is the sky?", res)
	require.NoError(t, err)
	assert.Equal(t, "Blue.", ans)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "The sky is blue.")
}

func TestService_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	svc := newService(gen)

	summary, err := svc.Ingest(ctx, []domain.Document{{ID: "empty", Content: ""}})
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.Equal(t, 0, svc.Stats().Chunks)

	res, err := svc.Query(ctx, "anything at all", 3)
	require.NoError(t, err)
	assert.Empty(t, res)

	ans, err := svc.Answer(ctx, "anything at all", res)
	require.NoError(t, err)
	assert.Equal(t, answer.Unknown, ans)
	assert.Empty(t, gen.prompts)
}

func TestService_CorpusWithoutWords(t *testing.T) {
	ctx := context.Background()

	svc := newService(nil)
	_, err := svc.Ingest(ctx, []domain.Document{{ID: "n", Content: "2024. 42!"}})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Stats().Chunks)

	res, err := svc.Query(ctx, "42", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "42!", res[0].Chunk.Text)

	// punctuation only: every query goes through lexical ranking
	svc = newService(nil)
	_, err = svc.Ingest(ctx, []domain.Document{{ID: "p", Content: "... !!!"}})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Stats().Chunks)
	assert.Equal(t, 1, svc.Stats().Dimension)

	res, err = svc.Query(ctx, "anything", 3)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestService_IngestDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs.txt")
	require.NoError(t, os.WriteFile(path, []byte("Grass is green. Water is wet."), 0o644))

	svc := newService(nil)
	_, err := svc.IngestDocuments(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Stats().Documents)
	assert.False(t, svc.GenerationEnabled())

	_, err = svc.Answer(context.Background(), "q", nil)
	assert.Error(t, err)

	_, err = newService(nil).IngestDocuments(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_QueryBeforeIngest(t *testing.T) {
	_, err := newService(nil).Query(context.Background(), "q", 1)
	assert.Error(t, err)
}
