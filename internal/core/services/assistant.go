package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/core/ports/driving"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Ensure Assistant implements the interfaces.
var (
	_ driving.AssistantService = (*Assistant)(nil)
	_ driving.MemoryService    = (*Assistant)(nil)
)

// LLMFactory constructs an LLM service for validated settings.
// Implemented by the adapters/driven/ai package; defined here so core
// never imports adapters.
type LLMFactory func(settings domain.LLMSettings) (driven.LLMService, error)

// pipeline bundles the components that depend on the active LLM
// provider. A provider switch builds a fresh pipeline; queries already
// holding the old one finish on it.
type pipeline struct {
	llm  driven.LLMService
	orch *Orchestrator
}

// Assistant is the caller-facing service behind the CLI and MCP front
// ends. It snapshots settings and the provider pipeline once per query.
type Assistant struct {
	settings   *Settings
	store      driven.ChunkStore
	embedder   *EmbeddingGateway
	memory     *Memory
	assembler  *Assembler
	loader     driven.DocumentLoader
	chunker    driven.Chunker
	web        driven.WebSearchService // optional
	llmFactory LLMFactory

	mu       sync.RWMutex
	pipeline *pipeline
}

// NewAssistant wires the full query pipeline. The web service is
// optional (can be nil).
func NewAssistant(
	settings *Settings,
	store driven.ChunkStore,
	embedder *EmbeddingGateway,
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	web driven.WebSearchService,
	llmFactory LLMFactory,
) (*Assistant, error) {
	a := &Assistant{
		settings:   settings,
		store:      store,
		embedder:   embedder,
		memory:     NewMemory(store, embedder),
		assembler:  NewAssembler(),
		loader:     loader,
		chunker:    chunker,
		web:        web,
		llmFactory: llmFactory,
	}

	llm, err := llmFactory(settings.Get().LLM)
	if err != nil {
		return nil, fmt.Errorf("initial LLM provider: %w", err)
	}
	a.pipeline = a.buildPipeline(llm)

	return a, nil
}

// buildPipeline assembles the provider-dependent components around llm.
func (a *Assistant) buildPipeline(llm driven.LLMService) *pipeline {
	retriever := NewRetriever(a.store, a.embedder, llm)
	synth := NewSynthesizer(llm)
	return &pipeline{
		llm:  llm,
		orch: NewOrchestrator(retriever, a.assembler, synth, a.memory, a.web, a.store, a.embedder),
	}
}

// currentPipeline snapshots the active pipeline.
func (a *Assistant) currentPipeline() *pipeline {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipeline
}

// Ask answers a query for a session through the fallback chain, then
// records the exchange in conversation memory.
func (a *Assistant) Ask(ctx context.Context, query, sessionID string) (*domain.Answer, error) {
	if sessionID == "" {
		sessionID = "default"
	}

	// One snapshot per query: neither a settings update nor a provider
	// switch is observed mid-flight.
	cfg := a.settings.Get()
	p := a.currentPipeline()

	answer, err := p.orch.Answer(ctx, query, sessionID, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userTurn := domain.Turn{Role: domain.RoleUser, Content: query, Timestamp: now}
	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: answer.Text, Timestamp: now.Add(time.Millisecond)}

	if err := a.memory.Append(ctx, sessionID, userTurn, cfg.Memory); err != nil {
		logger.Warn("Recording user turn failed: %v", err)
	}
	if err := a.memory.Append(ctx, sessionID, assistantTurn, cfg.Memory); err != nil {
		logger.Warn("Recording assistant turn failed: %v", err)
	}

	return answer, nil
}

// Ingest loads documents from path, chunks them, embeds the chunks in
// batches, and stores them in the default namespace.
func (a *Assistant) Ingest(ctx context.Context, path string) (*driving.IngestReport, error) {
	logger.Section("Ingestion")

	docs, err := a.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	report := &driving.IngestReport{Documents: len(docs)}

	for i := range docs {
		chunks, err := a.chunker.Split(docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", docs[i].SourcePath, err)
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for j := range chunks {
			texts[j] = chunks[j].Content
		}

		embeddings, err := a.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", docs[i].SourcePath, err)
		}
		for j := range chunks {
			chunks[j].Embedding = embeddings[j]
		}

		if err := a.store.Upsert(ctx, chunks); err != nil {
			return nil, fmt.Errorf("store %s: %w", docs[i].SourcePath, err)
		}

		report.Chunks += len(chunks)
		logger.Debug("Ingested %s: %d chunks", docs[i].SourcePath, len(chunks))
	}

	logger.Info("Ingested %d documents, %d chunks", report.Documents, report.Chunks)
	return report, nil
}

// SetProvider switches the LLM provider. Validation happens at the
// configuration boundary; on success a fresh pipeline is built and the
// old provider is closed. Takes effect on the next query.
func (a *Assistant) SetProvider(_ context.Context, name string) error {
	if err := a.settings.SetLLMProvider(name); err != nil {
		return err
	}

	llm, err := a.llmFactory(a.settings.Get().LLM)
	if err != nil {
		return fmt.Errorf("building %s provider: %w", name, err)
	}

	a.mu.Lock()
	old := a.pipeline
	a.pipeline = a.buildPipeline(llm)
	a.mu.Unlock()

	if old != nil && old.llm != nil {
		if err := old.llm.Close(); err != nil {
			logger.Warn("Closing previous provider: %v", err)
		}
	}

	return nil
}

// MemoryToggle enables or disables long-term conversation memory.
func (a *Assistant) MemoryToggle(_ context.Context, enabled bool) error {
	return a.settings.SetLongTermMemory(enabled)
}

// Recall returns prior turns relevant to the query for a session.
func (a *Assistant) Recall(ctx context.Context, sessionID, query string, limit int) ([]domain.Turn, error) {
	return a.memory.Recall(ctx, sessionID, query, limit, a.settings.Get().Memory)
}

// Clear wipes a session's buffer and persisted turns.
func (a *Assistant) Clear(ctx context.Context, sessionID string) error {
	return a.memory.Clear(ctx, sessionID)
}

// Export serialises a session's turns.
func (a *Assistant) Export(ctx context.Context, sessionID string) ([]byte, error) {
	return a.memory.Export(ctx, sessionID, a.settings.Get().Memory)
}
