// Package embedding holds the request-batching shared by embedding adapters.
//
// Remote embedding models are called one text per request. Batcher groups
// a batch into fixed-size sub-batches and issues requests sequentially
// within each, optionally paced by a rate limiter.
package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// DefaultBatchSize is the number of texts per sub-batch.
const DefaultBatchSize = 100

// EmbedFunc sends a single embedding request.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Batcher sequences embedding requests for a provider.
type Batcher struct {
	size       int
	dimensions int
	limiter    *rate.Limiter
}

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	// BatchSize is the sub-batch size (default: 100).
	BatchSize int

	// Dimensions is the expected vector length. Zero disables the check.
	Dimensions int

	// RequestsPerSecond paces requests. Zero or less means unlimited.
	RequestsPerSecond float64
}

// NewBatcher creates a batcher.
func NewBatcher(cfg BatcherConfig) *Batcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	b := &Batcher{
		size:       cfg.BatchSize,
		dimensions: cfg.Dimensions,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return b
}

// BatchSize returns the sub-batch size.
func (b *Batcher) BatchSize() int {
	return b.size
}

// One runs a single request through the limiter and checks its dimensions.
func (b *Batcher) One(ctx context.Context, text string, fn EmbedFunc) ([]float32, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	vec, err := fn(ctx, text)
	if err != nil {
		return nil, err
	}
	if b.dimensions > 0 && len(vec) != b.dimensions {
		return nil, fmt.Errorf("%w: %w: got %d, want %d",
			domain.ErrUpstreamFailure, domain.ErrDimensionMismatch, len(vec), b.dimensions)
	}
	return vec, nil
}

// Batch embeds texts in order. The first failure aborts the batch.
func (b *Batcher) Batch(ctx context.Context, texts []string, fn EmbedFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.size {
		end := min(start+b.size, len(texts))
		logger.Debug("embedding: sub-batch %d-%d of %d", start, end, len(texts))

		for i, text := range texts[start:end] {
			vec, err := b.One(ctx, text, fn)
			if err != nil {
				return nil, fmt.Errorf("embed text %d: %w", start+i, err)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
