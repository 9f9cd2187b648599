// Package mcp provides an MCP (Model Context Protocol) server adapter for Sage.
// It enables AI assistants like Claude to ask questions against the local
// knowledge base and manage ingestion.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")
