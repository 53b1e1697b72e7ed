package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ragloc/internal/domain"
)

const defaultBatchSize = 32

// Encoder binds a provider to the normalization convention of the index
// metric. Corpus and query vectors both go through the same Encoder, so they
// can never disagree on normalization.
type Encoder struct {
	provider  Provider
	normalize bool
	batchSize int
	logger    *zap.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithBatchSize sets how many texts are sent to the provider per call.
func WithBatchSize(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(l *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder creates an Encoder whose normalization follows metric.
func NewEncoder(p Provider, metric domain.Metric, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		provider:  p,
		normalize: metric.RequiresNormalized(),
		batchSize: defaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Normalize reports whether vectors are unit-normalized.
func (e *Encoder) Normalize() bool { return e.normalize }

// ProviderName returns the name of the wrapped provider.
func (e *Encoder) ProviderName() string { return e.provider.Name() }

// Dimension returns the provider's vector dimension (0 if not yet known).
func (e *Encoder) Dimension() int { return e.provider.Dimension() }

// Prepare runs the provider's corpus preparation when it has one.
func (e *Encoder) Prepare(corpus []string) error {
	p, ok := e.provider.(Preparer)
	if !ok {
		return nil
	}
	if err := p.Prepare(corpus); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", e.provider.Name(), err)
	}
	return nil
}

// EncodeCorpus embeds texts in batches. progress, when set, is called after
// every batch with the number of texts embedded so far.
func (e *Encoder) EncodeCorpus(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.encode(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
		if progress != nil {
			progress(len(out), len(texts))
		}
	}
	if err := uniformDimension(out); err != nil {
		return nil, err
	}
	e.logger.Debug("corpus encoded",
		zap.String("provider", e.provider.Name()),
		zap.Int("vectors", len(out)),
		zap.Bool("normalized", e.normalize),
	)
	return out, nil
}

// EncodeQuery embeds a single query string.
func (e *Encoder) EncodeQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := e.encode(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Encoder) encode(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.provider.Encode(ctx, texts, e.normalize)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.provider.Name(), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s embed: got %d vectors for %d texts: %w", e.provider.Name(), len(vecs), len(texts), domain.ErrProviderMismatch)
	}
	return vecs, nil
}

func uniformDimension(vecs [][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, expected %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return nil
}
