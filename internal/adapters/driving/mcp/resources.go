package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Sage resources.
	uriScheme = "sage://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource exposing the active configuration.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Active Sage configuration (credentials redacted)",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	// Template for conversation history export.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "memory/{session}",
		Name:        "conversation-memory",
		Description: "Recorded turns for a conversation session",
		MIMEType:    "application/json",
	}, s.handleMemoryResource)
}

// settingsView is the redacted settings shape served to clients.
type settingsView struct {
	LLMProvider       string  `json:"llm_provider"`
	LLMModel          string  `json:"llm_model"`
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	UseWeb            bool    `json:"use_web"`
	LongTermMemory    bool    `json:"long_term_memory"`
	TopK              int     `json:"top_k"`
	FinalK            int     `json:"final_k"`
	Threshold         float64 `json:"similarity_threshold"`
}

// handleSettingsResource returns the current settings, never credentials.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return jsonResource(req.Params.URI, []byte("{}")), nil
	}

	cfg := s.ports.Settings.Get()
	view := settingsView{
		LLMProvider:       string(cfg.LLM.Provider),
		LLMModel:          cfg.LLM.Model,
		EmbeddingProvider: string(cfg.Embedding.Provider),
		EmbeddingModel:    cfg.Embedding.Model,
		UseWeb:            cfg.Fallback.UseWeb,
		LongTermMemory:    cfg.Memory.LongTerm,
		TopK:              cfg.Retrieval.TopK,
		FinalK:            cfg.Retrieval.FinalK,
		Threshold:         cfg.Retrieval.SimilarityThreshold,
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// handleMemoryResource returns the exported turns for a session.
func (s *Server) handleMemoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Memory == nil {
		return jsonResource(req.Params.URI, []byte("[]")), nil
	}

	session := strings.TrimPrefix(req.Params.URI, uriScheme+"memory/")
	if session == "" || strings.Contains(session, "/") {
		return nil, fmt.Errorf("invalid memory resource URI: %s", req.Params.URI)
	}

	data, err := s.ports.Memory.Export(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("exporting session %s: %w", session, err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// jsonResource wraps JSON content in a read result.
func jsonResource(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}
