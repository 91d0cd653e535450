package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure the wrappers implement the interfaces.
var (
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
)

// newLimiter allows bursts of one request so that callers queue evenly.
func newLimiter(rps float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// RateLimitedEmbedding throttles calls to an embedding service.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithEmbeddingRateLimit wraps svc in a token bucket of rps requests per
// second. A non-positive rps returns svc unchanged.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, rps float64) driven.EmbeddingService {
	if rps <= 0 || svc == nil {
		return svc
	}
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: newLimiter(rps)}
}

// Embed waits for a token and then embeds text.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a single token per batch.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

// RateLimitedLLM throttles calls to a completion service.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// WithLLMRateLimit wraps svc in a token bucket of rps requests per second.
// A non-positive rps returns svc unchanged.
func WithLLMRateLimit(svc driven.LLMService, rps float64) driven.LLMService {
	if rps <= 0 || svc == nil {
		return svc
	}
	return &RateLimitedLLM{LLMService: svc, limiter: newLimiter(rps)}
}

// Generate waits for a token and then generates a completion.
func (r *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.LLMService.Generate(ctx, prompt, opts)
}
