// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ChunkStore: Vector and keyword retrieval over stored chunks
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Language model completion and query expansion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - WebSearchService: External web search. Without it, the fallback
//     chain skips TRY_WEB and goes straight to the direct model.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
