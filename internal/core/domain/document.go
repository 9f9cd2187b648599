package domain

import "time"

// Document represents an ingested document before chunking.
// It is the canonical representation produced by the filesystem loader.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourcePath is the original location (file path or URL).
	SourcePath string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk is a stored unit of text with its embedding and provenance.
// Chunks are immutable once stored; they disappear only through
// namespace deletion or a full rebuild.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Namespace scopes the chunk within the store.
	// Empty means the default document collection, which also receives
	// cached web results. Conversation turns live under
	// "conversation:<session>".
	Namespace string

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation for dense search.
	// May be nil for chunks stored without an embedding (trusted web results).
	Embedding []float32

	// SourcePath is the originating file path, empty for web chunks.
	SourcePath string

	// Title is the document or web page title.
	Title string

	// URL is set for chunks that came from web search.
	URL string

	// Page is the page number within the source, 0 when unknown.
	Page int

	// Index is the ordinal chunk position within the document.
	Index int

	// Seq is the ingestion sequence number assigned by the store.
	// It provides a stable tie-break for equally scored chunks.
	Seq int64

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}
