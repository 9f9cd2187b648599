package domain

import (
	"fmt"
	"strings"
)

// Candidate is a scored retrieval hit. It exists only for the duration
// of a single query and is discarded after context assembly.
type Candidate struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Dense is the normalised dense-similarity score (0-1).
	Dense float64

	// Lexical is the normalised term-overlap score (0-1).
	Lexical float64

	// Combined is the weighted combination of Dense and Lexical.
	Combined float64
}

// ContextSource identifies which knowledge source produced a context.
type ContextSource string

// Available context sources.
const (
	// SourceLocal means passages came from the local chunk store.
	SourceLocal ContextSource = "local"

	// SourceWeb means passages came from the web-search provider.
	SourceWeb ContextSource = "web"

	// SourceNone means no retrieval context was supplied and the model
	// answered from its own parametric knowledge.
	SourceNone ContextSource = "none"
)

// String returns the string representation.
func (s ContextSource) String() string {
	return string(s)
}

// Passage is a single piece of context text with enough provenance
// to produce a citation.
type Passage struct {
	// Text is the passage content.
	Text string

	// SourcePath is the originating file path, empty for web passages.
	SourcePath string

	// Title is the document or web page title.
	Title string

	// URL is set for passages that came from web search.
	URL string

	// Page is the page number within the source, 0 when unknown.
	Page int

	// Index is the chunk index within the document.
	Index int

	// FromMemory marks passages recalled from conversation memory.
	FromMemory bool
}

// Citation renders the passage provenance as a human-readable string.
func (p Passage) Citation() string {
	switch {
	case p.URL != "":
		if p.Title != "" {
			return fmt.Sprintf("%s <%s>", p.Title, p.URL)
		}
		return p.URL
	case p.FromMemory:
		return "conversation memory"
	case p.Page > 0:
		return fmt.Sprintf("%s, p.%d", p.SourcePath, p.Page)
	default:
		return fmt.Sprintf("%s#chunk%d", p.SourcePath, p.Index)
	}
}

// RetrievalContext is the bounded context assembled for one answer.
// Invariant: the total passage text never exceeds the budget it was
// assembled under.
type RetrievalContext struct {
	// Passages is the ordered sequence of included passages.
	// Citation order mirrors this order.
	Passages []Passage

	// BudgetUsed is the total text length consumed.
	BudgetUsed int

	// Source identifies which knowledge source produced the passages.
	Source ContextSource
}

// Empty reports whether the context carries no passages.
func (c RetrievalContext) Empty() bool {
	return len(c.Passages) == 0
}

// Citations returns the citation strings in inclusion order.
// Memory passages do not produce citations.
func (c RetrievalContext) Citations() []string {
	if c.Source == SourceNone {
		return nil
	}
	citations := make([]string, 0, len(c.Passages))
	seen := make(map[string]bool)
	for _, p := range c.Passages {
		if p.FromMemory {
			continue
		}
		cite := p.Citation()
		if seen[cite] {
			continue
		}
		seen[cite] = true
		citations = append(citations, cite)
	}
	return citations
}

// Stage identifies a step in the fallback chain.
type Stage string

// Fallback stages in attempt order.
const (
	StageLocal  Stage = "try_local"
	StageWeb    Stage = "try_web"
	StageDirect Stage = "direct_model"
)

// Transition records one fallback step and why it was taken.
// Transitions are a user-visible property, not just diagnostics.
type Transition struct {
	// From is the stage that failed or was skipped.
	From Stage

	// To is the stage attempted next.
	To Stage

	// Reason is a human-readable explanation.
	Reason string
}

// String renders the transition for logs and error messages.
func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s (%s)", t.From, t.To, t.Reason)
}

// Answer is the final response returned to the caller.
type Answer struct {
	// Text is the synthesized answer.
	Text string

	// Citations are provenance strings in inclusion order.
	// Empty when Source is SourceNone.
	Citations []string

	// Source identifies which knowledge source backed the answer.
	Source ContextSource

	// Transitions records the fallback steps taken to reach the source.
	Transitions []Transition
}

// Chain renders the attempted source chain for diagnostics.
func (a Answer) Chain() string {
	if len(a.Transitions) == 0 {
		return string(StageLocal)
	}
	parts := make([]string, 0, len(a.Transitions))
	for _, t := range a.Transitions {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "; ")
}
