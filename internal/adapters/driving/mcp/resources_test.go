package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

func readResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestSettingsResourceRedactsCredentials(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = "sk-secret"
	settings.Embedding.APIKey = "sk-also-secret"

	server, err := NewServer(&Ports{
		Assistant: &mockAssistantService{},
		Settings:  &mockSettingsService{settings: settings},
	})
	require.NoError(t, err)

	result, err := server.handleSettingsResource(context.Background(), readResourceRequest("sage://settings"))
	require.NoError(t, err)

	require.Len(t, result.Contents, 1)
	text := result.Contents[0].Text
	assert.NotContains(t, text, "sk-secret")
	assert.NotContains(t, text, "sk-also-secret")

	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &view))
	assert.Equal(t, "ollama", view["llm_provider"])
	assert.Equal(t, true, view["use_web"])
}

func TestSettingsResourceWithoutSettingsService(t *testing.T) {
	server, err := NewServer(&Ports{Assistant: &mockAssistantService{}})
	require.NoError(t, err)

	result, err := server.handleSettingsResource(context.Background(), readResourceRequest("sage://settings"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.JSONEq(t, "{}", result.Contents[0].Text)
}

func TestMemoryResourceExportsSession(t *testing.T) {
	exported := []byte(`[{"role":"user","content":"hi"}]`)
	server, err := NewServer(&Ports{
		Assistant: &mockAssistantService{},
		Memory:    &mockMemoryService{exported: exported},
	})
	require.NoError(t, err)

	result, err := server.handleMemoryResource(context.Background(), readResourceRequest("sage://memory/s1"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, string(exported), result.Contents[0].Text)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
}

func TestMemoryResourceRejectsMalformedURI(t *testing.T) {
	server, err := NewServer(&Ports{
		Assistant: &mockAssistantService{},
		Memory:    &mockMemoryService{},
	})
	require.NoError(t, err)

	_, err = server.handleMemoryResource(context.Background(), readResourceRequest("sage://memory/"))
	assert.Error(t, err)

	_, err = server.handleMemoryResource(context.Background(), readResourceRequest("sage://memory/a/b"))
	assert.Error(t, err)
}

func TestMemoryResourceWithoutMemoryService(t *testing.T) {
	server, err := NewServer(&Ports{Assistant: &mockAssistantService{}})
	require.NoError(t, err)

	result, err := server.handleMemoryResource(context.Background(), readResourceRequest("sage://memory/s1"))

	require.NoError(t, err)
	assert.JSONEq(t, "[]", result.Contents[0].Text)
}
