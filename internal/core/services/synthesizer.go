package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// systemPrompt is the fixed instruction template for answer synthesis.
const systemPrompt = `You are Sage, a local question-answering assistant.
Answer the user's question accurately and concisely.
When context passages are provided, ground your answer in them and do not
contradict them. When no context is provided, answer from your own
knowledge and say so if you are unsure. Never invent sources.`

// synthesisMaxTokens bounds the generated answer length.
const synthesisMaxTokens = 1024

// Synthesizer issues the final prompt to the language model and derives
// citations from passage provenance. It never asks the model to produce
// a citation.
type Synthesizer struct {
	llm driven.LLMService
}

// NewSynthesizer creates a synthesizer bound to one LLM service.
// A provider switch constructs a new synthesizer; in-flight queries
// keep the one they started with.
func NewSynthesizer(llm driven.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// Synthesize produces the answer text and its citations.
//
// Citations come purely from the context passages; when the context
// source is none the answer carries no citations. Provider failures are
// returned as domain.ErrSynthesisFailed and are never retried here.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, rc domain.RetrievalContext, history []domain.Turn,
) (string, []string, error) {
	logger.Section("Answer Synthesis")
	logger.Debug("Source: %s, passages: %d, history: %d turns",
		rc.Source, len(rc.Passages), len(history))

	messages := make([]driven.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: buildUserPrompt(query, rc),
	})

	answer, err := s.llm.Complete(ctx, systemPrompt, messages, driven.ChatOptions{
		MaxTokens:   synthesisMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	return strings.TrimSpace(answer), rc.Citations(), nil
}

// buildUserPrompt renders the context block and the question.
func buildUserPrompt(query string, rc domain.RetrievalContext) string {
	if rc.Empty() {
		return query
	}

	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, p := range rc.Passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, p.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
