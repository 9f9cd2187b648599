package driven

import (
	"context"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

// ChunkStore persists chunks and serves similarity and keyword lookups.
// Backed by SQLite; assumed durable. Namespaces partition the store so
// documents, cached web results, and conversation turns never mix.
type ChunkStore interface {
	// Upsert stores or replaces chunks. The store assigns each chunk a
	// monotonically increasing sequence number on first insert.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search finds the topK nearest chunks to the query vector by cosine
	// similarity, scoped to the namespace.
	Search(ctx context.Context, vector []float32, topK int, namespace string) ([]ChunkHit, error)

	// Keyword performs a term-match search over chunk content, scoped to
	// the namespace. Scores are term-overlap based, not comparable to
	// Search scores until normalised.
	Keyword(ctx context.Context, query string, topK int, namespace string) ([]ChunkHit, error)

	// Recent returns the newest chunks in a namespace, most recent first.
	// Used to rebuild the conversation buffer at startup.
	Recent(ctx context.Context, namespace string, limit int) ([]domain.Chunk, error)

	// DeleteNamespace removes all chunks in a namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Close releases resources.
	Close() error
}

// ChunkHit is a single store lookup result.
type ChunkHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Score is the provider-defined relevance score. Cosine similarity
	// (0-1) for Search, raw term-overlap for Keyword.
	Score float64
}
