package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

func retrievalSettings() domain.RetrievalSettings {
	return domain.RetrievalSettings{
		TopK:                5,
		FinalK:              5,
		SimilarityThreshold: 0.25,
		DenseWeight:         0.7,
		LexicalWeight:       0.3,
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	r := NewRetriever(&mockChunkStore{}, NewEmbeddingGateway(&mockEmbedder{}), nil)

	_, err := r.Retrieve(context.Background(), "   ", retrievalSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveRanksByCombinedScore(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c2", Content: "unrelated text"}, Score: 0.5},
				{Chunk: domain.Chunk{ID: "c1", Content: "morava k-theory notes"}, Score: 0.9},
			}, nil
		},
	}
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "morava", retrievalSettings())

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c1", candidates[0].Chunk.ID)
	assert.InDelta(t, 1.0, candidates[0].Combined, 1e-9)
}

func TestRetrieveMergesDuplicatesAcrossVariants(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "alpha beta"}, Score: 0.8},
				{Chunk: domain.Chunk{ID: "c2", Content: "alpha gamma"}, Score: 0.6},
			}, nil
		},
	}
	llm := &mockLLM{variants: []string{"alpha rephrased", "another alpha"}}
	cfg := retrievalSettings()
	cfg.QueryVariants = 2
	cfg.SimilarityThreshold = 0
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), llm)

	candidates, err := r.Retrieve(context.Background(), "alpha", cfg)

	require.NoError(t, err)
	seen := make(map[string]int)
	for _, c := range candidates {
		seen[c.Chunk.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "chunk %s appears more than once", id)
	}
	// Three variants searched, two distinct chunks survive the merge.
	assert.Equal(t, 3, store.searchCnt)
	assert.Len(t, candidates, 2)
}

func TestRetrieveThresholdEmptiesResultSet(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "completely unrelated"}, Score: 0},
			}, nil
		},
	}
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	_, err := r.Retrieve(context.Background(), "quantum chromodynamics", retrievalSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoRelevantResults)
}

func TestRetrieveNoHitsAtAll(t *testing.T) {
	r := NewRetriever(&mockChunkStore{}, NewEmbeddingGateway(&mockEmbedder{}), nil)

	_, err := r.Retrieve(context.Background(), "anything", retrievalSettings())

	assert.ErrorIs(t, err, domain.ErrNoRelevantResults)
}

func TestRetrieveStoreDown(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return nil, errors.New("database is locked")
		},
	}
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	_, err := r.Retrieve(context.Background(), "anything", retrievalSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetrieveEmbedderDown(t *testing.T) {
	embedder := &mockEmbedder{embedErr: errors.New("connection refused")}
	r := NewRetriever(&mockChunkStore{}, NewEmbeddingGateway(embedder), nil)

	_, err := r.Retrieve(context.Background(), "anything", retrievalSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetrieveExpansionFailureDegradesToOriginalQuery(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "relevant answer"}, Score: 0.9},
			}, nil
		},
	}
	llm := &mockLLM{expandErr: errors.New("model not loaded")}
	cfg := retrievalSettings()
	cfg.QueryVariants = 3
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), llm)

	candidates, err := r.Retrieve(context.Background(), "relevant", cfg)

	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	// Only the original query was searched.
	assert.Equal(t, 1, store.searchCnt)
}

func TestRetrieveKeywordFailureIsBestEffort(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "relevant answer"}, Score: 0.9},
			}, nil
		},
		keywordFn: func(_ string, _ int, _ string) ([]driven.ChunkHit, error) {
			return nil, errors.New("malformed query")
		},
	}
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "relevant", retrievalSettings())

	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestRetrieveKeywordOnlyHitsSurvive(t *testing.T) {
	store := &mockChunkStore{
		keywordFn: func(_ string, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "k1", Content: "banach space primer"}, Score: 1.0},
			}, nil
		},
	}
	cfg := retrievalSettings()
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "banach space", cfg)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "k1", candidates[0].Chunk.ID)
	assert.Zero(t, candidates[0].Dense)
}

func TestRetrieveTieBreaksByRecencyThenSeq(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "old", Content: "tensor intro", CreatedAt: older, Seq: 1}, Score: 0.5},
				{Chunk: domain.Chunk{ID: "new", Content: "tensor intro II", CreatedAt: newer, Seq: 4}, Score: 0.5},
				{Chunk: domain.Chunk{ID: "late-seq", Content: "tensor intro III", CreatedAt: older, Seq: 3}, Score: 0.5},
			}, nil
		},
	}
	cfg := retrievalSettings()
	cfg.SimilarityThreshold = 0
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "tensor", cfg)

	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "new", candidates[0].Chunk.ID)
	assert.Equal(t, "old", candidates[1].Chunk.ID)
	assert.Equal(t, "late-seq", candidates[2].Chunk.ID)
}

func TestRetrieveThresholdMonotonicity(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "spectral sequence basics"}, Score: 0.9},
				{Chunk: domain.Chunk{ID: "c2", Content: "spectral methods"}, Score: 0.6},
				{Chunk: domain.Chunk{ID: "c3", Content: "unrelated notes"}, Score: 0.3},
			}, nil
		},
	}
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	// Raising the threshold over a fixed candidate set never increases
	// the result count.
	prev := 3
	for _, threshold := range []float64{0, 0.4, 0.8, 1.0, 1.01} {
		cfg := retrievalSettings()
		cfg.SimilarityThreshold = threshold

		candidates, err := r.Retrieve(context.Background(), "spectral sequence", cfg)
		count := len(candidates)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrNoRelevantResults, "threshold %.2f", threshold)
			count = 0
		}

		assert.LessOrEqual(t, count, prev, "threshold %.2f", threshold)
		prev = count
	}
}

func TestRetrieveDegenerateRangeSurvivesThreshold(t *testing.T) {
	// A lone positive score has no range to normalise over; it maps to 1
	// so thresholding cannot invert the monotonicity guarantee.
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "c1", Content: "spectral analysis"}, Score: 0.4},
			}, nil
		},
	}
	cfg := retrievalSettings()
	cfg.SimilarityThreshold = 0.9
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "spectral", cfg)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0, candidates[0].Combined, 1e-9)
}

func TestRetrieveCapsAtFinalK(t *testing.T) {
	store := &mockChunkStore{
		searchFn: func(_ []float32, _ int, _ string) ([]driven.ChunkHit, error) {
			return []driven.ChunkHit{
				{Chunk: domain.Chunk{ID: "a", Content: "graph theory a"}, Score: 0.9},
				{Chunk: domain.Chunk{ID: "b", Content: "graph theory b"}, Score: 0.8},
				{Chunk: domain.Chunk{ID: "c", Content: "graph theory c"}, Score: 0.7},
			}, nil
		},
	}
	cfg := retrievalSettings()
	cfg.FinalK = 2
	cfg.SimilarityThreshold = 0
	r := NewRetriever(store, NewEmbeddingGateway(&mockEmbedder{}), nil)

	candidates, err := r.Retrieve(context.Background(), "graph", cfg)

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].Chunk.ID)
}

func TestLexicalOverlap(t *testing.T) {
	assert.Equal(t, 1.0, lexicalOverlap("morava k-theory", "Notes on Morava K-theory at height two"))
	assert.Equal(t, 0.5, lexicalOverlap("alpha beta", "only alpha here"))
	assert.Equal(t, 0.0, lexicalOverlap("gamma", "nothing matches"))
	assert.Equal(t, 0.0, lexicalOverlap("", "content"))
}

func TestNormaliser(t *testing.T) {
	all := []*rawScores{{dense: 0.2}, {dense: 0.6}, {dense: 1.0}}
	norm := normaliser(all, func(rs *rawScores) float64 { return rs.dense })

	assert.InDelta(t, 0.0, norm(0.2), 1e-9)
	assert.InDelta(t, 0.5, norm(0.6), 1e-9)
	assert.InDelta(t, 1.0, norm(1.0), 1e-9)

	// Degenerate range: positive scores collapse to 1.
	flat := []*rawScores{{dense: 0.4}, {dense: 0.4}}
	norm = normaliser(flat, func(rs *rawScores) float64 { return rs.dense })
	assert.Equal(t, 1.0, norm(0.4))
	assert.Equal(t, 0.0, norm(0))
}
