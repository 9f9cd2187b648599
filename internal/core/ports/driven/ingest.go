package driven

import (
	"context"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

// DocumentLoader reads documents from a file or directory path.
// The filesystem adapter implements this for plain text and markdown.
type DocumentLoader interface {
	// Load returns the documents found at path. A single-file path
	// yields one document; a directory is walked recursively.
	Load(ctx context.Context, path string) ([]domain.Document, error)
}

// Chunker splits a document into storable chunks.
type Chunker interface {
	// Split returns the chunks for a document, ordered by position.
	// Embeddings are not populated; that is the caller's concern.
	Split(doc domain.Document) ([]domain.Chunk, error)
}
