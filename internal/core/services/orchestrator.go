package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Stage timeout defaults, applied when the policy leaves them unset.
const (
	defaultLocalTimeout = 15 * time.Second
	defaultWebTimeout   = 10 * time.Second
)

// historyTurns is how many recent turns accompany the final prompt.
const historyTurns = 8

// memoryRecallLimit caps the memory hits considered for context.
const memoryRecallLimit = 5

// Orchestrator decides, per query, which knowledge source to trust:
// local retrieval, web search, or the model's own knowledge. The
// decision is memoryless across queries; only conversation memory
// carries state forward.
type Orchestrator struct {
	retriever *Retriever
	assembler *Assembler
	synth     *Synthesizer
	memory    *Memory
	web       driven.WebSearchService // optional
	store     driven.ChunkStore
	embedder  *EmbeddingGateway
}

// NewOrchestrator wires the fallback chain. The web service is optional
// (can be nil); without it TRY_WEB is skipped regardless of policy.
func NewOrchestrator(
	retriever *Retriever,
	assembler *Assembler,
	synth *Synthesizer,
	memory *Memory,
	web driven.WebSearchService,
	store driven.ChunkStore,
	embedder *EmbeddingGateway,
) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		assembler: assembler,
		synth:     synth,
		memory:    memory,
		web:       web,
		store:     store,
		embedder:  embedder,
	}
}

// Answer runs the fallback chain for one query and synthesizes the
// final answer.
//
// Stages run in fixed order: TRY_LOCAL, TRY_WEB, DIRECT_MODEL. Each
// stage is bounded by its policy timeout; a timeout is treated exactly
// like a stage failure and triggers the next stage rather than a hang.
// Every transition carries a human-readable reason, returned on the
// answer so callers can surface why a given source was used.
//
// Only a failure in the terminal DIRECT_MODEL synthesis is returned as
// an error (domain.ErrSynthesisFailed); all earlier failures are
// absorbed into transitions.
func (o *Orchestrator) Answer(ctx context.Context, query, sessionID string, cfg domain.AppSettings) (*domain.Answer, error) {
	var transitions []domain.Transition

	rc, localErr := o.tryLocal(ctx, query, sessionID, cfg)
	if localErr != nil {
		next, reason := o.afterLocal(cfg)
		t := domain.Transition{From: domain.StageLocal, To: next, Reason: stageReason(localErr, reason)}
		transitions = append(transitions, t)
		logger.Info("Fallback: %s", t)

		if next == domain.StageWeb {
			var webErr error
			rc, webErr = o.tryWeb(ctx, query, cfg)
			if webErr != nil {
				t := domain.Transition{From: domain.StageWeb, To: domain.StageDirect, Reason: stageReason(webErr, "")}
				transitions = append(transitions, t)
				logger.Info("Fallback: %s", t)
				rc = domain.RetrievalContext{Source: domain.SourceNone}
			}
		} else {
			rc = domain.RetrievalContext{Source: domain.SourceNone}
		}
	}

	history := o.memory.RecentTurns(ctx, sessionID, historyTurns, cfg.Memory)

	text, citations, err := o.synth.Synthesize(ctx, query, rc, history)
	if err != nil {
		// Terminal: attach the attempted source chain for diagnostics.
		answer := domain.Answer{Source: rc.Source, Transitions: transitions}
		logger.Error("Synthesis failed after chain [%s]: %v", answer.Chain(), err)
		return nil, fmt.Errorf("%w (chain: %s)", err, answer.Chain())
	}

	return &domain.Answer{
		Text:        text,
		Citations:   citations,
		Source:      rc.Source,
		Transitions: transitions,
	}, nil
}

// tryLocal runs hybrid retrieval and context assembly under the local
// stage timeout.
func (o *Orchestrator) tryLocal(ctx context.Context, query, sessionID string, cfg domain.AppSettings) (domain.RetrievalContext, error) {
	timeout := cfg.Fallback.LocalTimeout
	if timeout <= 0 {
		timeout = defaultLocalTimeout
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates, err := o.retriever.Retrieve(stageCtx, query, cfg.Retrieval)
	if err != nil {
		return domain.RetrievalContext{}, err
	}

	// Memory hits enrich local context but never block it.
	memoryHits, err := o.memory.Recall(stageCtx, sessionID, query, memoryRecallLimit, cfg.Memory)
	if err != nil {
		logger.Warn("Memory recall failed: %v", err)
		memoryHits = nil
	}

	rc := o.assembler.Assemble(candidates, memoryHits, cfg.Context.TokenBudget, cfg.Context.MemoryFraction)
	if rc.Empty() {
		return domain.RetrievalContext{}, domain.ErrNoRelevantResults
	}

	rc.Source = domain.SourceLocal
	return rc, nil
}

// afterLocal decides the stage following a failed TRY_LOCAL.
func (o *Orchestrator) afterLocal(cfg domain.AppSettings) (domain.Stage, string) {
	if !cfg.Fallback.UseWeb {
		return domain.StageDirect, "web fallback disabled by policy"
	}
	if o.web == nil {
		return domain.StageDirect, "no web-search provider configured"
	}
	return domain.StageWeb, ""
}

// tryWeb queries the web-search provider under the web stage timeout.
// Results are trusted as-is (no embedding needed for ranking) and,
// policy permitting, written through to the chunk store so future
// queries can answer locally.
func (o *Orchestrator) tryWeb(ctx context.Context, query string, cfg domain.AppSettings) (domain.RetrievalContext, error) {
	timeout := cfg.Fallback.WebTimeout
	if timeout <= 0 {
		timeout = defaultWebTimeout
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limit := cfg.Fallback.WebResults
	if limit <= 0 {
		limit = 3
	}

	results, err := o.web.Search(stageCtx, query, limit)
	if err != nil {
		return domain.RetrievalContext{}, fmt.Errorf("%w: %w", domain.ErrWebSearchFailed, err)
	}
	if len(results) == 0 {
		return domain.RetrievalContext{}, fmt.Errorf("%w: provider returned no results", domain.ErrWebSearchFailed)
	}

	logger.Info("Web search: %d results", len(results))

	candidates := make([]domain.Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, domain.Candidate{
			Chunk: domain.Chunk{
				Content: res.Snippet,
				Title:   res.Title,
				URL:     res.URL,
			},
			Combined: 1.0,
		})
	}

	rc := o.assembler.Assemble(candidates, nil, cfg.Context.TokenBudget, 0)
	if rc.Empty() {
		return domain.RetrievalContext{}, fmt.Errorf("%w: results empty after assembly", domain.ErrWebSearchFailed)
	}
	rc.Source = domain.SourceWeb

	if cfg.Fallback.CacheWebResults {
		o.cacheWebResults(ctx, results)
	}

	return rc, nil
}

// cacheWebResults writes web results through to the default namespace
// so future queries can answer them from local retrieval. Best-effort:
// embedding or store failures only log.
func (o *Orchestrator) cacheWebResults(ctx context.Context, results []driven.WebResult) {
	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(results))

	for _, res := range results {
		if res.Snippet == "" {
			continue
		}
		embedding, err := o.embedder.Embed(ctx, res.Snippet)
		if err != nil {
			logger.Warn("Embedding web result failed: %v", err)
			embedding = nil // keyword search still finds it
		}
		// Deterministic id keyed on the URL: re-caching the same page
		// replaces the old snippet instead of duplicating it.
		id := fmt.Sprintf("web-%x", sha256.Sum256([]byte(res.URL)))
		chunks = append(chunks, domain.Chunk{
			ID:        id,
			Content:   res.Snippet,
			Embedding: embedding,
			Title:     res.Title,
			URL:       res.URL,
			CreatedAt: now,
		})
	}

	if len(chunks) == 0 {
		return
	}

	if err := o.store.Upsert(ctx, chunks); err != nil {
		logger.Warn("Caching web results failed: %v", err)
		return
	}
	logger.Debug("Cached %d web results", len(chunks))
}

// stageReason renders a stage failure as a transition reason.
func stageReason(err error, extra string) string {
	var reason string
	switch {
	case errors.Is(err, domain.ErrNoRelevantResults):
		reason = "no results above similarity threshold"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "stage timed out"
	case errors.Is(err, domain.ErrRetrievalUnavailable):
		reason = "retrieval unavailable: " + err.Error()
	case errors.Is(err, domain.ErrWebSearchFailed):
		reason = err.Error()
	case err != nil:
		reason = err.Error()
	}

	switch {
	case reason == "":
		return extra
	case extra == "":
		return reason
	default:
		return reason + "; " + extra
	}
}
