package driven

import "context"

// LLMService provides language model completion for answer synthesis
// and query expansion.
//
// Implementations may include:
//   - OpenAI (GPT-4, GPT-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
//
// Selection among providers is an explicit configuration value behind a
// closed set of named variants; switching takes effect on the next query.
type LLMService interface {
	// Complete produces a completion for the system prompt and message
	// history.
	Complete(ctx context.Context, system string, messages []ChatMessage, opts ChatOptions) (string, error)

	// ExpandQuery generates up to n paraphrased variants of a search
	// query to broaden recall. The original query is not included.
	ExpandQuery(ctx context.Context, query string, n int) ([]string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures completion behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
