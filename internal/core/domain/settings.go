package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds hybrid retrieval parameters.
type RetrievalSettings struct {
	// TopK is the per-variant number of neighbours fetched.
	TopK int

	// FinalK is the maximum number of candidates returned after merging.
	FinalK int

	// SimilarityThreshold filters out candidates with a lower combined score.
	SimilarityThreshold float64

	// DenseWeight weights the normalised dense score in the combination.
	DenseWeight float64

	// LexicalWeight weights the normalised lexical score in the combination.
	LexicalWeight float64

	// QueryVariants is the number of paraphrased variants generated for
	// multi-query expansion, in addition to the original query.
	QueryVariants int
}

// FallbackPolicy controls the fallback chain behaviour.
type FallbackPolicy struct {
	// UseWeb enables the TRY_WEB stage. When false, a failed local
	// retrieval falls directly through to DIRECT_MODEL.
	UseWeb bool

	// WebResults caps the number of web results requested.
	WebResults int

	// CacheWebResults persists web results into the chunk store so
	// future queries can answer them locally.
	CacheWebResults bool

	// LocalTimeout bounds the TRY_LOCAL stage.
	LocalTimeout time.Duration

	// WebTimeout bounds the TRY_WEB stage.
	WebTimeout time.Duration
}

// MemorySettings holds conversation memory configuration.
type MemorySettings struct {
	// LongTerm enables embedding turns into the chunk store so they
	// persist across restarts and are recallable by similarity.
	LongTerm bool

	// BufferSize bounds the short-term FIFO buffer per session.
	BufferSize int
}

// ContextSettings holds context assembly configuration.
type ContextSettings struct {
	// TokenBudget bounds the total assembled text length.
	TokenBudget int

	// MemoryFraction is the maximum fraction of the budget that
	// conversation memory hits may occupy.
	MemoryFraction float64
}

// AppSettings holds all application settings.
// Services receive a snapshot per query so a provider switch
// never takes effect mid-flight.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Retrieval holds hybrid retrieval parameters.
	Retrieval RetrievalSettings

	// Fallback holds the fallback chain policy.
	Fallback FallbackPolicy

	// Memory holds conversation memory settings.
	Memory MemorySettings

	// Context holds context assembly settings.
	Context ContextSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The defaults always name a valid provider so the system never
// reaches an unconfigured state.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Retrieval: RetrievalSettings{
			TopK:                10,
			FinalK:              5,
			SimilarityThreshold: 0.25,
			DenseWeight:         0.7,
			LexicalWeight:       0.3,
			QueryVariants:       2,
		},
		Fallback: FallbackPolicy{
			UseWeb:          true,
			WebResults:      3,
			CacheWebResults: true,
			LocalTimeout:    15 * time.Second,
			WebTimeout:      10 * time.Second,
		},
		Memory: MemorySettings{
			LongTerm:   false,
			BufferSize: 20,
		},
		Context: ContextSettings{
			TokenBudget:    4000,
			MemoryFraction: 0.2,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
