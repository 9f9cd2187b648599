package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(Config{BaseURL: server.URL, Model: "test-model", Dimensions: 3})
}

func TestEmbedBatchSingleRequest(t *testing.T) {
	var captured embedRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		})
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, []string{"first", "second"}, captured.Input)
	require.Len(t, embeddings, 2)
	assert.InDelta(t, 0.1, embeddings[0][0], 1e-6)
	assert.InDelta(t, 0.6, embeddings[1][2], 1e-6)
}

func TestEmbedDelegatesToBatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{1, 2, 3}}})
	})

	embedding, err := svc.Embed(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, embedding)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	svc := newTestService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{1}}})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings, got 1")
}

func TestEmbedBatchServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model missing"))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDimensionsAndModelName(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
}
