package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

func TestCreateLLMServiceOllama(t *testing.T) {
	svc, err := CreateLLMService(domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
	})

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "llama3.2", svc.ModelName())
	assert.NoError(t, svc.Close())
}

func TestCreateLLMServiceCloudProvidersNeedKeys(t *testing.T) {
	for _, provider := range []domain.AIProvider{domain.AIProviderOpenAI, domain.AIProviderAnthropic} {
		_, err := CreateLLMService(domain.LLMSettings{Provider: provider})
		assert.ErrorIs(t, err, domain.ErrInvalidProvider, "provider %s", provider)
	}
}

func TestCreateLLMServiceOpenAIWithKey(t *testing.T) {
	svc, err := CreateLLMService(domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
	})

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", svc.ModelName())
}

func TestCreateLLMServiceUnknownProvider(t *testing.T) {
	_, err := CreateLLMService(domain.LLMSettings{Provider: "skynet"})

	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
}

func TestCreateAndValidateLLMServicePingsProvider(t *testing.T) {
	var pinged bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			pinged = true
		}
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	svc, err := CreateAndValidateLLMService(domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  server.URL,
	})

	require.NoError(t, err)
	assert.True(t, pinged)
	assert.NoError(t, svc.Close())
}

func TestCreateAndValidateLLMServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := CreateAndValidateLLMService(domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  server.URL,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestCreateAndValidateEmbeddingServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := CreateAndValidateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  server.URL,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestCreateEmbeddingServiceOllamaDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
	})

	require.NoError(t, err)
	assert.Equal(t, 768, svc.Dimensions())

	svc, err = CreateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})

	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())
}

func TestCreateEmbeddingServiceRejectsAnthropic(t *testing.T) {
	_, err := CreateEmbeddingService(domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude",
		APIKey:   "key",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
	assert.Contains(t, err.Error(), "does not support embeddings")
}
