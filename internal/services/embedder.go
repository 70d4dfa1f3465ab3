package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

// Embedder turns a batch of strings into vectors, one per input, in order.
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type cachedEmbedder struct {
	next   Embedder
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEmbedder stores vectors in redis keyed by model and text hash.
// Redis failures are logged and the call falls through to next.
func NewCachedEmbedder(next Embedder, rdb redis.UniversalClient, model string, ttl time.Duration, l *zap.Logger) Embedder {
	return &cachedEmbedder{
		next:   next,
		rdb:    rdb,
		prefix: "embedding:" + model + ":",
		ttl:    ttl,
		logger: logger.OrNop(l),
	}
}

func (c *cachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// EmbedStrings implements Embedder.
func (c *cachedEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	out := make([][]float32, len(texts))
	var missIdx []int

	cached, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
		cached = nil
	}

	for i := range texts {
		if i < len(cached) {
			if s, ok := cached[i].(string); ok {
				if vec, err := decodeVector([]byte(s)); err == nil {
					out[i] = vec
					continue
				}
			}
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	missing := make([]string, len(missIdx))
	for j, i := range missIdx {
		missing[j] = texts[i]
	}

	vectors, err := c.next.EmbedStrings(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(missing))
	}

	pipe := c.rdb.Pipeline()
	for j, i := range missIdx {
		out[i] = vectors[j]
		pipe.Set(ctx, keys[i], encodeVector(vectors[j]), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	c.logger.Debug("embeddings resolved",
		zap.Int("cached", len(texts)-len(missIdx)),
		zap.Int("computed", len(missIdx)))

	return out, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.New("corrupt cached vector")
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
