// Package qdrant is an index backend that stores vectors in a Qdrant
// collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ragloc/internal/domain"
	"ragloc/internal/index"
)

const upsertBatch = 256

// Config contains connection details for a Qdrant instance.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Builder recreates a collection and loads vectors into it.
type Builder struct {
	url        string
	apiKey     string
	collection string
	metric     domain.Metric
	client     *http.Client
	logger     *zap.Logger
}

func NewBuilder(cfg Config, metric domain.Metric, logger *zap.Logger) *Builder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "rag_chunks"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		metric:     metric,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (b *Builder) Name() string { return "qdrant" }

// Ping checks that the server answers its readiness check.
func (b *Builder) Ping(ctx context.Context) error {
	return b.do(ctx, http.MethodGet, b.url+"/readyz", nil, nil)
}

// Build drops any previous collection of the same name, creates it with the
// distance matching the metric and upserts every vector with its position as
// point id.
func (b *Builder) Build(ctx context.Context, vectors [][]float32) (index.Index, error) {
	dim, err := index.Dimension(vectors)
	if err != nil {
		return nil, err
	}
	idx := &Index{b: b, dimension: dim, size: len(vectors)}
	if len(vectors) == 0 {
		return idx, nil
	}
	coll := b.collectionURL()
	if err := b.do(ctx, http.MethodDelete, coll, nil, nil); err != nil {
		b.logger.Debug("qdrant drop collection failed", zap.String("collection", b.collection), zap.Error(err))
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": distanceName(b.metric),
		},
	}
	if err := b.do(ctx, http.MethodPut, coll, body, nil); err != nil {
		return nil, fmt.Errorf("create qdrant collection: %w", err)
	}
	for start := 0; start < len(vectors); start += upsertBatch {
		end := min(start+upsertBatch, len(vectors))
		points := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, map[string]any{
				"id":      i,
				"vector":  vectors[i],
				"payload": map[string]any{"position": i},
			})
		}
		if err := b.do(ctx, http.MethodPut, coll+"/points?wait=true", map[string]any{"points": points}, nil); err != nil {
			return nil, fmt.Errorf("upsert qdrant points: %w", err)
		}
	}
	b.logger.Info("qdrant collection built",
		zap.String("collection", b.collection),
		zap.Int("points", len(vectors)),
		zap.String("distance", distanceName(b.metric)),
	)
	return idx, nil
}

// Index queries a collection built by Builder.
type Index struct {
	b         *Builder
	dimension int
	size      int
}

func (x *Index) Len() int              { return x.size }
func (x *Index) Dimension() int        { return x.dimension }
func (x *Index) Metric() domain.Metric { return x.b.metric }

func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	k, err := index.ClampK(k, x.size)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return nil, nil
	}
	if err := index.CheckQuery(query, x.dimension); err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": false,
	}
	var resp struct {
		Result []struct {
			ID    uint64  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := x.b.do(ctx, http.MethodPost, x.b.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.Hit{Position: int(r.ID), Score: convertScore(x.b.metric, r.Score)})
	}
	index.SortHits(hits, x.b.metric)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (b *Builder) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", b.url, b.collection)
}

func distanceName(m domain.Metric) string {
	switch m {
	case domain.MetricL2:
		return "Euclid"
	case domain.MetricCosine:
		return "Cosine"
	default:
		return "Dot"
	}
}

// convertScore maps a Qdrant score onto the local metric convention:
// Euclid distances are squared and cosine similarities become distances.
func convertScore(m domain.Metric, score float64) float64 {
	switch m {
	case domain.MetricL2:
		return score * score
	case domain.MetricCosine:
		return 1 - score
	default:
		return score
	}
}

func (b *Builder) do(ctx context.Context, method, url string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.apiKey != "" {
		req.Header.Set("api-key", b.apiKey)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
