package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragloc/internal/answer"
	"ragloc/internal/domain"
	"ragloc/internal/embedding"
	"ragloc/internal/index"
	"ragloc/internal/loader"
	"ragloc/internal/retriever"
)

// DocumentChunker turns an ordered document list into one ordered chunk sequence.
type DocumentChunker interface {
	ChunkDocuments(documents []domain.Document) []domain.Chunk
}

// Stats describes the ingested corpus.
type Stats struct {
	Documents int
	Chunks    int
	Dimension int
	Embedder  string
	Backend   string
	Metric    domain.Metric
}

// RAGServiceImpl runs the fixed pipeline: chunk, embed, build the index once,
// then answer queries against it.
type RAGServiceImpl struct {
	chunker             DocumentChunker
	encoder             *embedding.Encoder
	builder             index.Builder
	summarizer          domain.Summarizer
	summaryMaxSentences int
	composer            *answer.Composer
	lexicalFallback     bool
	progress            func(done, total int)
	logger              *zap.Logger

	retriever *retriever.Retriever
	stats     Stats
}

// Option configures the service.
type Option func(*RAGServiceImpl)

func WithSummarizer(s domain.Summarizer, maxSentences int) Option {
	return func(r *RAGServiceImpl) {
		r.summarizer = s
		r.summaryMaxSentences = maxSentences
	}
}

// WithComposer enables the answer path.
func WithComposer(c *answer.Composer) Option {
	return func(r *RAGServiceImpl) { r.composer = c }
}

func WithLexicalFallback(enabled bool) Option {
	return func(r *RAGServiceImpl) { r.lexicalFallback = enabled }
}

// WithProgress reports corpus embedding progress.
func WithProgress(fn func(done, total int)) Option {
	return func(r *RAGServiceImpl) { r.progress = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *RAGServiceImpl) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRAGService(ch DocumentChunker, enc *embedding.Encoder, builder index.Builder, opts ...Option) *RAGServiceImpl {
	s := &RAGServiceImpl{chunker: ch, encoder: enc, builder: builder, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IngestDocuments loads the named files and ingests them.
func (s *RAGServiceImpl) IngestDocuments(ctx context.Context, paths []string) (string, error) {
	docs, err := loader.Load(paths)
	if err != nil {
		return "", err
	}
	var total int
	for _, d := range docs {
		total += len(d.Content)
	}
	s.logger.Info("documents loaded", zap.Int("documents", len(docs)), zap.Int("bytes", total))
	return s.Ingest(ctx, docs)
}

// Ingest chunks and embeds documents and builds the index. It returns a
// short summary of the corpus when a summarizer is configured. A corpus with
// no chunks is valid; every later query returns no results.
func (s *RAGServiceImpl) Ingest(ctx context.Context, documents []domain.Document) (string, error) {
	start := time.Now()
	chunks := s.chunker.ChunkDocuments(documents)
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	s.logger.Info("chunks produced", zap.Int("chunks", len(chunks)))

	var vectors [][]float32
	if len(chunks) > 0 {
		if err := s.encoder.Prepare(texts); err != nil {
			return "", err
		}
		var err error
		vectors, err = s.encoder.EncodeCorpus(ctx, texts, s.progress)
		if err != nil {
			return "", err
		}
	}
	idx, err := s.builder.Build(ctx, vectors)
	if err != nil {
		return "", fmt.Errorf("build %s index: %w", s.builder.Name(), err)
	}
	s.retriever = retriever.New(s.encoder, idx, chunks,
		retriever.WithLexicalFallback(s.lexicalFallback),
		retriever.WithLogger(s.logger),
	)
	s.stats = Stats{
		Documents: len(documents),
		Chunks:    len(chunks),
		Dimension: idx.Dimension(),
		Embedder:  s.encoder.ProviderName(),
		Backend:   s.builder.Name(),
		Metric:    idx.Metric(),
	}
	s.logger.Info("index built",
		zap.String("backend", s.stats.Backend),
		zap.String("metric", s.stats.Metric.String()),
		zap.String("embedder", s.stats.Embedder),
		zap.Int("dimension", s.stats.Dimension),
		zap.Int("vectors", idx.Len()),
		zap.Duration("took", time.Since(start)),
	)

	if s.summarizer == nil {
		return "", nil
	}
	var all strings.Builder
	for _, d := range documents {
		all.WriteString(d.Content)
		all.WriteString("\n")
	}
	return s.summarizer.Summarize(all.String(), s.summaryMaxSentences)
}

// Stats returns what Ingest built.
func (s *RAGServiceImpl) Stats() Stats { return s.stats }

// Query returns the top-k chunks for query, best first.
func (s *RAGServiceImpl) Query(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if s.retriever == nil {
		return nil, errors.New("query before ingest")
	}
	return s.retriever.Retrieve(ctx, query, topK)
}

// GenerationEnabled reports whether Answer will call a generator.
func (s *RAGServiceImpl) GenerationEnabled() bool { return s.composer != nil }

// Answer composes an answer from results in their ranked order.
func (s *RAGServiceImpl) Answer(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	if s.composer == nil {
		return "", errors.New("generation is disabled")
	}
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return s.composer.Compose(ctx, query, chunks)
}
