package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// maxCacheEntries bounds the per-process embedding cache.
// Old entries are dropped wholesale when the limit is hit; queries and
// query variants repeat often enough within a session that even this
// crude policy saves most round-trips.
const maxCacheEntries = 2048

// EmbeddingGateway wraps an embedding provider with batching and a
// session-scoped cache. It is safe for concurrent use.
type EmbeddingGateway struct {
	mu      sync.RWMutex
	service driven.EmbeddingService
	cache   map[string][]float32
}

// NewEmbeddingGateway creates a gateway around the given provider.
func NewEmbeddingGateway(service driven.EmbeddingService) *EmbeddingGateway {
	return &EmbeddingGateway{
		service: service,
		cache:   make(map[string][]float32),
	}
}

// Embed returns the embedding for text, serving repeats from cache.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := g.lookup(text); ok {
		return cached, nil
	}

	embedding, err := g.service.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	g.store(text, embedding)
	return embedding, nil
}

// EmbedBatch embeds multiple texts, fetching only the cache misses from
// the provider in a single batched call.
func (g *EmbeddingGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := g.lookup(text); ok {
			results[i] = cached
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	logger.Debug("Embedding batch: %d texts, %d cache misses", len(texts), len(missing))

	embeddings, err := g.service.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(missing) {
		return nil, fmt.Errorf("embed batch: provider returned %d embeddings for %d texts",
			len(embeddings), len(missing))
	}

	for j, embedding := range embeddings {
		results[missingIdx[j]] = embedding
		g.store(missing[j], embedding)
	}

	return results, nil
}

// Dimensions returns the embedding vector size of the wrapped provider.
func (g *EmbeddingGateway) Dimensions() int {
	return g.service.Dimensions()
}

// lookup reads the cache.
func (g *EmbeddingGateway) lookup(text string) ([]float32, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cached, ok := g.cache[text]
	return cached, ok
}

// store writes the cache, resetting it when full.
func (g *EmbeddingGateway) store(text string, embedding []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.cache) >= maxCacheEntries {
		g.cache = make(map[string][]float32)
	}
	g.cache[text] = embedding
}
