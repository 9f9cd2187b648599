package driving

import (
	"context"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

// AssistantService is the caller-facing API consumed by the CLI and the
// MCP server. Implementations snapshot settings once per query so a
// provider switch never takes effect mid-flight.
type AssistantService interface {
	// Ask answers a query for a session, attempting local retrieval,
	// then web search, then the raw model. The returned answer carries
	// the source used, citations, and the fallback transitions taken.
	Ask(ctx context.Context, query, sessionID string) (*domain.Answer, error)

	// Ingest loads documents from a file or directory, chunks them,
	// embeds the chunks, and stores them for retrieval.
	Ingest(ctx context.Context, path string) (*IngestReport, error)

	// SetProvider switches the LLM provider. The name must be a known
	// provider with valid credentials; invalid names are rejected here
	// and never reach the orchestrator. Takes effect on the next query.
	SetProvider(ctx context.Context, name string) error

	// MemoryToggle enables or disables long-term conversation memory.
	MemoryToggle(ctx context.Context, enabled bool) error
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	// Documents is the number of documents loaded.
	Documents int

	// Chunks is the number of chunks stored.
	Chunks int
}

// MemoryService exposes conversation memory management to front ends.
type MemoryService interface {
	// Recall returns prior turns relevant to the query, most relevant
	// first.
	Recall(ctx context.Context, sessionID, query string, limit int) ([]domain.Turn, error)

	// Clear wipes both the short-term buffer and any persisted turns
	// for the session.
	Clear(ctx context.Context, sessionID string) error

	// Export serialises the session's turns.
	Export(ctx context.Context, sessionID string) ([]byte, error)
}

// SettingsService manages application settings at runtime.
type SettingsService interface {
	// Get returns a consistent snapshot of the current settings.
	Get() domain.AppSettings

	// SetLLMProvider switches the LLM provider by name.
	SetLLMProvider(name string) error

	// SetLongTermMemory toggles long-term conversation memory.
	SetLongTermMemory(enabled bool) error

	// SetRetrievalParams updates retrieval tuning parameters.
	SetRetrievalParams(params domain.RetrievalSettings) error

	// SetFallbackPolicy updates the fallback policy.
	SetFallbackPolicy(policy domain.FallbackPolicy) error
}
