package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ragloc/internal/answer"
	"ragloc/internal/chunker"
	"ragloc/internal/config"
	"ragloc/internal/domain"
	"ragloc/internal/embedding"
	"ragloc/internal/embedding/cache"
	embopenai "ragloc/internal/embedding/openai"
	"ragloc/internal/embedding/tfidf"
	genopenai "ragloc/internal/generation/openai"
	"ragloc/internal/index"
	"ragloc/internal/index/flat"
	"ragloc/internal/index/qdrant"
	"ragloc/internal/summarizer"
)

const pingTimeout = 2 * time.Second

// buildProvider returns the configured embedding provider and a function
// releasing whatever it holds open.
func buildProvider(cfg *config.AppConfig, logger *zap.Logger) (embedding.Provider, func(), error) {
	noop := func() {}
	switch cfg.Embedder.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), noop, nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("openai embedder init failed: %w", err)
		}
		if !cfg.Embedder.Cache.Enabled {
			return client, noop, nil
		}
		cached, err := cache.Open(cfg.Embedder.Cache.Path, client, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open embedding cache: %w", err)
		}
		return cached, func() { _ = cached.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown embedder: %q", cfg.Embedder.Type)
}

func buildChunker(cfg *config.AppConfig) *chunker.SentenceChunker {
	strategy := chunker.StrategySentence
	if cfg.Chunker.Type == "period" {
		strategy = chunker.StrategyPeriod
	}
	return chunker.NewSentenceChunker(strategy, cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
}

// selectBackend picks the index builder. "auto" uses Qdrant only when it is
// configured and answers its readiness check, and the exact flat index
// otherwise.
func selectBackend(ctx context.Context, cfg *config.AppConfig, metric domain.Metric, logger *zap.Logger) (index.Builder, error) {
	switch cfg.Index.Backend {
	case "flat":
		return flat.NewBuilder(metric), nil
	case "qdrant":
		return newQdrant(cfg, metric, logger), nil
	case "auto":
		if cfg.Index.Qdrant == nil || cfg.Index.Qdrant.URL == "" {
			return flat.NewBuilder(metric), nil
		}
		q := newQdrant(cfg, metric, logger)
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := q.Ping(pctx); err != nil {
			logger.Warn("qdrant unavailable, using flat index", zap.String("url", cfg.Index.Qdrant.URL), zap.Error(err))
			return flat.NewBuilder(metric), nil
		}
		return q, nil
	}
	return nil, fmt.Errorf("index.backend %q: %w", cfg.Index.Backend, domain.ErrUnknownBackend)
}

func newQdrant(cfg *config.AppConfig, metric domain.Metric, logger *zap.Logger) *qdrant.Builder {
	q := cfg.Index.Qdrant
	return qdrant.NewBuilder(qdrant.Config{
		URL:        q.URL,
		APIKey:     q.APIKey,
		Collection: q.Collection,
		Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
	}, metric, logger)
}

// buildComposer returns nil when generation is off.
func buildComposer(cfg *config.AppConfig, logger *zap.Logger) (*answer.Composer, error) {
	if cfg.Generator.Type != "openai" {
		return nil, nil
	}
	oc := cfg.Generator.OpenAI
	gen, err := genopenai.NewGenerator(genopenai.Config{
		BaseURL:   oc.BaseURL,
		APIKeyEnv: oc.APIKeyEnv,
		Model:     oc.Model,
		Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("openai generator init failed: %w", err)
	}
	return answer.NewComposer(gen, cfg.Generator.MaxTokens, logger), nil
}

func buildSummarizer(cfg *config.AppConfig) domain.Summarizer {
	if cfg.Summarizer.Type == "frequency" {
		return summarizer.NewFrequencySummarizer()
	}
	return nil
}
