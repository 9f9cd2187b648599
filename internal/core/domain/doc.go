// Package domain defines the core business entities for Sage.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document before chunking
//   - Chunk: A stored unit of text with its embedding and provenance
//   - Candidate: A scored retrieval hit, ephemeral per query
//   - RetrievalContext: The bounded context assembled for one answer
//   - Turn: A single conversation exchange
//   - AppSettings: Provider and retrieval configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
