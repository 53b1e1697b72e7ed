// Package retriever maps a query to the most relevant chunks: embed the
// query, search the index, translate hit positions back into chunks.
package retriever

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ragloc/internal/domain"
	"ragloc/internal/index"
	"ragloc/internal/vecmath"
)

// QueryEncoder embeds a query with the same convention used for the corpus.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, query string) ([]float32, error)
}

// Retriever answers top-k queries over a fixed chunk sequence.
type Retriever struct {
	encoder         QueryEncoder
	index           index.Index
	chunks          []domain.Chunk
	lexicalFallback bool
	logger          *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLexicalFallback ranks by token overlap when the query embeds to a zero
// vector, which happens for TF-IDF queries with no known terms.
func WithLexicalFallback(enabled bool) Option {
	return func(r *Retriever) { r.lexicalFallback = enabled }
}

// WithLogger sets the logger used for per-query debug events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Retriever. idx must have been built from the embeddings of
// chunks, in the same order.
func New(enc QueryEncoder, idx index.Index, chunks []domain.Chunk, opts ...Option) *Retriever {
	r := &Retriever{encoder: enc, index: idx, chunks: chunks, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Len returns the number of retrievable chunks.
func (r *Retriever) Len() int { return len(r.chunks) }

// Retrieve returns up to k chunks ordered by relevance, best first.
// With no chunks it returns nothing and never calls the encoder or index.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}
	if len(r.chunks) == 0 {
		return nil, nil
	}
	start := time.Now()
	vec, err := r.encoder.EncodeQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if r.lexicalFallback && vecmath.IsZero(vec) {
		r.logger.Debug("query embedded to zero vector, using lexical ranking", zap.String("query", query))
		return r.lexical(query, k), nil
	}
	hits, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(r.chunks) {
			return nil, fmt.Errorf("index returned position %d outside %d chunks", h.Position, len(r.chunks))
		}
		out = append(out, domain.SearchResult{Chunk: r.chunks[h.Position], Score: h.Score})
	}
	r.logger.Debug("query retrieved",
		zap.Int("k", k),
		zap.Int("results", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}
