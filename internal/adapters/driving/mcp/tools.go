package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query   string `json:"query" jsonschema:"the question to answer"`
	Session string `json:"session,omitempty" jsonschema:"conversation session identifier (defaults to a per-server session)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Source    string   `json:"source"`
	Citations []string `json:"citations,omitempty"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path string `json:"path" jsonschema:"file or directory to ingest into the knowledge base"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// SetProviderInput is the input schema for the set_provider tool.
type SetProviderInput struct {
	Provider string `json:"provider" jsonschema:"LLM provider name: ollama, openai, or anthropic"`
}

// SetProviderOutput is the output schema for the set_provider tool.
type SetProviderOutput struct {
	Provider string `json:"provider"`
}

// MemoryToggleInput is the input schema for the memory_toggle tool.
type MemoryToggleInput struct {
	Enabled bool `json:"enabled" jsonschema:"whether long-term conversation memory is enabled"`
}

// MemoryToggleOutput is the output schema for the memory_toggle tool.
type MemoryToggleOutput struct {
	Enabled bool `json:"enabled"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the local knowledge base, with web and model fallback",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest local documents into the knowledge base",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_provider",
		Description: "Switch the LLM provider used for answering",
	}, s.handleSetProvider)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "memory_toggle",
		Description: "Enable or disable long-term conversation memory",
	}, s.handleMemoryToggle)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	session := input.Session
	if session == "" {
		session = s.defaultSession
	}

	answer, err := s.ports.Assistant.Ask(ctx, input.Query, session)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Source:    string(answer.Source),
		Citations: answer.Citations,
	}
	for _, t := range answer.Transitions {
		output.Fallbacks = append(output.Fallbacks, t.String())
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Assistant.Ingest(ctx, input.Path)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Documents: report.Documents,
		Chunks:    report.Chunks,
	}, nil
}

// handleSetProvider handles the set_provider tool invocation.
func (s *Server) handleSetProvider(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetProviderInput,
) (*mcp.CallToolResult, SetProviderOutput, error) {
	if err := s.ports.Assistant.SetProvider(ctx, input.Provider); err != nil {
		return nil, SetProviderOutput{}, err
	}
	return nil, SetProviderOutput{Provider: input.Provider}, nil
}

// handleMemoryToggle handles the memory_toggle tool invocation.
func (s *Server) handleMemoryToggle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MemoryToggleInput,
) (*mcp.CallToolResult, MemoryToggleOutput, error) {
	if err := s.ports.Assistant.MemoryToggle(ctx, input.Enabled); err != nil {
		return nil, MemoryToggleOutput{}, err
	}
	return nil, MemoryToggleOutput{Enabled: input.Enabled}, nil
}
