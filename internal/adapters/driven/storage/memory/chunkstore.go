// Package memory provides in-memory implementations of driven ports,
// used in tests and as a stand-in store when persistence is disabled.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu      sync.RWMutex
	chunks  map[string]domain.Chunk // keyed by chunk ID
	nextSeq int64
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// Upsert stores or replaces chunks, assigning sequence numbers on first
// insert.
func (s *ChunkStore) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if existing, ok := s.chunks[chunk.ID]; ok {
			chunk.Seq = existing.Seq
		} else {
			s.nextSeq++
			chunk.Seq = s.nextSeq
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search finds the topK nearest chunks by cosine similarity.
func (s *ChunkStore) Search(_ context.Context, vector []float32, topK int, namespace string) ([]driven.ChunkHit, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.ChunkHit
	for _, chunk := range s.chunks {
		if chunk.Namespace != namespace || len(chunk.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(vector, chunk.Embedding)
		if score <= 0 {
			continue
		}
		hits = append(hits, driven.ChunkHit{Chunk: chunk, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Keyword performs term-overlap matching over chunk content.
func (s *ChunkStore) Keyword(_ context.Context, query string, topK int, namespace string) ([]driven.ChunkHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.ChunkHit
	for _, chunk := range s.chunks {
		if chunk.Namespace != namespace {
			continue
		}
		content := strings.ToLower(chunk.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, driven.ChunkHit{
			Chunk: chunk,
			Score: float64(matched) / float64(len(terms)),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Recent returns the newest chunks in a namespace, most recent first.
func (s *ChunkStore) Recent(_ context.Context, namespace string, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Namespace == namespace {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq > chunks[j].Seq })
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

// DeleteNamespace removes all chunks in a namespace.
func (s *ChunkStore) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, chunk := range s.chunks {
		if chunk.Namespace == namespace {
			delete(s.chunks, id)
		}
	}
	return nil
}

// Close releases resources (no-op for memory store).
func (s *ChunkStore) Close() error {
	return nil
}

// Len reports how many chunks are stored, for tests.
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
