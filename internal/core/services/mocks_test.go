package services

import (
	"context"
	"sync"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

// mockChunkStore is a mock implementation of driven.ChunkStore.
// Function fields override individual operations; unset fields succeed
// with empty results.
type mockChunkStore struct {
	mu sync.Mutex

	searchFn  func(vector []float32, topK int, namespace string) ([]driven.ChunkHit, error)
	keywordFn func(query string, topK int, namespace string) ([]driven.ChunkHit, error)
	recentFn  func(namespace string, limit int) ([]domain.Chunk, error)
	upsertErr error

	upserted   []domain.Chunk
	deletedNS  []string
	searchCnt  int
	keywordCnt int
}

func (m *mockChunkStore) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, chunks...)
	return nil
}

func (m *mockChunkStore) Search(_ context.Context, vector []float32, topK int, namespace string) ([]driven.ChunkHit, error) {
	m.mu.Lock()
	m.searchCnt++
	fn := m.searchFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(vector, topK, namespace)
}

func (m *mockChunkStore) Keyword(_ context.Context, query string, topK int, namespace string) ([]driven.ChunkHit, error) {
	m.mu.Lock()
	m.keywordCnt++
	fn := m.keywordFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(query, topK, namespace)
}

func (m *mockChunkStore) Recent(_ context.Context, namespace string, limit int) ([]domain.Chunk, error) {
	if m.recentFn == nil {
		return nil, nil
	}
	return m.recentFn(namespace, limit)
}

func (m *mockChunkStore) DeleteNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedNS = append(m.deletedNS, namespace)
	return nil
}

func (m *mockChunkStore) Close() error { return nil }

// upsertedChunks snapshots the chunks stored so far.
func (m *mockChunkStore) upsertedChunks() []domain.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Chunk, len(m.upserted))
	copy(out, m.upserted)
	return out
}

// mockEmbedder is a mock implementation of driven.EmbeddingService.
// Embeddings are derived from text length so distinct texts stay
// distinguishable without a real model.
type mockEmbedder struct {
	mu         sync.Mutex
	embedErr   error
	embedCnt   int
	batchCnt   int
	batchTexts [][]string
}

func (m *mockEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCnt++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCnt++
	m.batchTexts = append(m.batchTexts, append([]string(nil), texts...))
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM is a mock implementation of driven.LLMService.
type mockLLM struct {
	mu sync.Mutex

	completion  string
	completeErr error
	variants    []string
	expandErr   error

	completeCnt int
	lastSystem  string
	lastMsgs    []driven.ChatMessage
	closed      bool
}

func (m *mockLLM) Complete(_ context.Context, system string, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCnt++
	m.lastSystem = system
	m.lastMsgs = append([]driven.ChatMessage(nil), messages...)
	if m.completeErr != nil {
		return "", m.completeErr
	}
	return m.completion, nil
}

func (m *mockLLM) ExpandQuery(_ context.Context, _ string, _ int) ([]string, error) {
	if m.expandErr != nil {
		return nil, m.expandErr
	}
	return m.variants, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockWebSearch is a mock implementation of driven.WebSearchService.
type mockWebSearch struct {
	mu        sync.Mutex
	results   []driven.WebResult
	err       error
	searchCnt int
}

func (m *mockWebSearch) Search(_ context.Context, _ string, limit int) ([]driven.WebResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCnt++
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.results) > limit {
		return m.results[:limit], nil
	}
	return m.results, nil
}

func (m *mockWebSearch) Close() error { return nil }

// mockLoader is a mock implementation of driven.DocumentLoader.
type mockLoader struct {
	docs []domain.Document
	err  error
}

func (m *mockLoader) Load(_ context.Context, _ string) ([]domain.Document, error) {
	return m.docs, m.err
}

// mockChunker is a mock implementation of driven.Chunker that splits a
// document on blank lines.
type mockChunker struct {
	err error
}

func (m *mockChunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Chunk{{
		ID:         doc.ID + "-0000",
		Content:    doc.Content,
		SourcePath: doc.SourcePath,
		Title:      doc.Title,
	}}, nil
}
