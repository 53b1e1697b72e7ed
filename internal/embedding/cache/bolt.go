// Package cache persists embedding vectors across runs so an unchanged
// corpus is not re-embedded by a remote provider.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"ragloc/internal/embedding"
)

type storedVector struct {
	Vector []float32 `json:"v"`
}

// Provider decorates an embedding.Provider with a bbolt-backed cache.
// Vectors are keyed by provider name, normalization flag and text, and kept
// in one bucket per provider name.
type Provider struct {
	inner     embedding.Provider
	db        *bbolt.DB
	bucket    []byte
	dimension int
	logger    *zap.Logger
}

// Open opens (or creates) the cache file at path and wraps inner.
func Open(path string, inner embedding.Provider, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open embedding cache %s: %w", path, err)
	}
	bucket := []byte(inner.Name())
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &Provider{inner: inner, db: db, bucket: bucket, logger: logger}, nil
}

// Close releases the cache file.
func (p *Provider) Close() error { return p.db.Close() }

// Name returns the wrapped provider's name.
func (p *Provider) Name() string { return p.inner.Name() }

// Dimension returns the wrapped provider's dimension, falling back to the
// dimension of cached vectors when the provider has not been called yet.
func (p *Provider) Dimension() int {
	if d := p.inner.Dimension(); d > 0 {
		return d
	}
	return p.dimension
}

// Prepare forwards corpus preparation to the wrapped provider.
func (p *Provider) Prepare(corpus []string) error {
	if pr, ok := p.inner.(embedding.Preparer); ok {
		return pr.Prepare(corpus)
	}
	return nil
}

// Encode serves cached vectors and forwards only the misses to the wrapped provider.
func (p *Provider) Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	var missIdx []int
	var missTexts []string

	err := p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.bucket)
		for i, t := range texts {
			keys[i] = key(p.inner.Name(), normalize, t)
			raw := b.Get(keys[i])
			if raw == nil {
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, t)
				continue
			}
			var sv storedVector
			if err := json.Unmarshal(raw, &sv); err != nil {
				// corrupted entries are re-embedded
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, t)
				continue
			}
			out[i] = sv.Vector
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}
	p.logger.Debug("embedding cache lookup",
		zap.Int("hits", len(texts)-len(missIdx)),
		zap.Int("misses", len(missIdx)),
	)

	if len(missTexts) > 0 {
		fresh, err := p.inner.Encode(ctx, missTexts, normalize)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, fmt.Errorf("cache: provider returned %d vectors for %d texts", len(fresh), len(missTexts))
		}
		err = p.db.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(p.bucket)
			for j, i := range missIdx {
				data, err := json.Marshal(storedVector{Vector: fresh[j]})
				if err != nil {
					return err
				}
				if err := b.Put(keys[i], data); err != nil {
					return err
				}
				out[i] = fresh[j]
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("write embedding cache: %w", err)
		}
	}
	if len(out) > 0 && p.dimension == 0 {
		p.dimension = len(out[0])
	}
	return out, nil
}

func key(provider string, normalize bool, text string) []byte {
	h := sha256.New()
	h.Write([]byte(provider))
	if normalize {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return []byte(hex.EncodeToString(sum))
}
