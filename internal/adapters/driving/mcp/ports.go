package mcp

import (
	"github.com/sage-labs/sage-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant answers questions and ingests documents.
	Assistant driving.AssistantService

	// Memory exposes conversation history.
	Memory driving.MemoryService

	// Settings exposes the current configuration.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	// Memory and Settings are optional; their resources degrade gracefully
	return nil
}
