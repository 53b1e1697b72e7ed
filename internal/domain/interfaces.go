package domain

import "context"

// Document represents a single text file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a retrievable unit of a document. Its identity is Index, the
// position in the ordered chunk sequence of the whole corpus.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// Hit is a raw index match: a chunk position and the metric score.
type Hit struct {
	Position int
	Score    float64
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) []Chunk
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Generator produces a continuation for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	Query(ctx context.Context, query string, topK int) ([]SearchResult, error)
	Answer(ctx context.Context, query string, results []SearchResult) (string, error)
	GenerationEnabled() bool
}
