package services

import (
	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Assembler packs ranked candidates and memory hits into a bounded
// retrieval context. Passages are never split; a passage that would
// overflow the budget is skipped whole.
type Assembler struct{}

// NewAssembler creates a context assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds a retrieval context from candidates and memory hits.
//
// Memory hits occupy at most memoryFraction of the budget so long
// conversations do not starve document context. Candidates are packed
// greedily in rank order. The caller sets the context source.
//
// Invariant: the total included text never exceeds budget.
func (a *Assembler) Assemble(
	candidates []domain.Candidate, memoryHits []domain.Turn, budget int, memoryFraction float64,
) domain.RetrievalContext {
	logger.Section("Context Assembly")

	if budget <= 0 {
		return domain.RetrievalContext{Source: domain.SourceNone}
	}

	if memoryFraction < 0 {
		memoryFraction = 0
	}
	if memoryFraction > 1 {
		memoryFraction = 1
	}

	memoryBudget := int(float64(budget) * memoryFraction)
	seen := make(map[string]bool)
	ctx := domain.RetrievalContext{}

	// Memory first, capped by its fraction. Hits arrive most relevant
	// first from recall.
	memoryUsed := 0
	for _, turn := range memoryHits {
		text := turn.Content
		norm := normaliseText(text)
		if norm == "" || seen[norm] {
			continue
		}
		if memoryUsed+len(text) > memoryBudget {
			continue
		}
		seen[norm] = true
		memoryUsed += len(text)
		ctx.Passages = append(ctx.Passages, domain.Passage{
			Text:       text,
			FromMemory: true,
		})
	}
	ctx.BudgetUsed = memoryUsed

	logger.Debug("Memory passages: %d (%d/%d chars)", len(ctx.Passages), memoryUsed, memoryBudget)

	// Then candidates, greedily by descending score, never splitting a
	// passage mid-text.
	for _, c := range candidates {
		text := c.Chunk.Content
		norm := normaliseText(text)
		if norm == "" || seen[norm] {
			continue
		}
		if ctx.BudgetUsed+len(text) > budget {
			continue
		}
		seen[norm] = true
		ctx.BudgetUsed += len(text)
		ctx.Passages = append(ctx.Passages, domain.Passage{
			Text:       text,
			SourcePath: c.Chunk.SourcePath,
			Title:      c.Chunk.Title,
			URL:        c.Chunk.URL,
			Page:       c.Chunk.Page,
			Index:      c.Chunk.Index,
		})
	}

	logger.Debug("Assembled %d passages, %d/%d chars", len(ctx.Passages), ctx.BudgetUsed, budget)
	return ctx
}
