package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Retrieval errors. These trigger fallback, never surface directly.

	// ErrNoRelevantResults indicates thresholding emptied the candidate
	// set. The retriever signals this rather than forcing degraded
	// passages into context; the caller decides fallback.
	ErrNoRelevantResults = errors.New("no relevant results above threshold")

	// ErrRetrievalUnavailable indicates the chunk store or embedding
	// provider is down.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrWebSearchFailed indicates the web-search provider errored,
	// timed out, or returned nothing.
	ErrWebSearchFailed = errors.New("web search failed")

	// ErrSynthesisFailed indicates the model provider failed in the
	// terminal stage. This is the only stage error surfaced to callers.
	ErrSynthesisFailed = errors.New("answer synthesis failed")

	// Configuration errors. Rejected at the configuration boundary,
	// never reaching the orchestrator.

	// ErrInvalidProvider indicates an unknown provider name.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrMissingCredential indicates a provider requiring an API key
	// has none configured.
	ErrMissingCredential = errors.New("missing credential")

	// Chunk store errors.

	// ErrStoreUnavailable indicates the chunk store cannot be reached.
	ErrStoreUnavailable = errors.New("chunk store unavailable")

	// ErrCollectionNotFound indicates the namespace does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// Embedding errors.

	// ErrModelUnavailable indicates the embedding model cannot be reached.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrInputTooLong indicates the text exceeds the model's input limit.
	ErrInputTooLong = errors.New("input too long")

	// Provider errors.

	// ErrLLMUnavailable indicates the LLM service is not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
