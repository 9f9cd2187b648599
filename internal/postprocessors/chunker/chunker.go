// Package chunker provides a fixed-size text chunker with overlap.
package chunker

import (
	"fmt"
	"strings"
	"time"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits document content into fixed-size overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split returns the chunks for a document, ordered by position. Chunk
// ids derive from the document id and position, so re-ingesting a
// changed document replaces its chunks in place.
func (c *Chunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	content := doc.Content
	contentLen := len(content)
	now := time.Now().UTC()

	estimatedChunks := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	index := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		} else {
			end = breakAtWhitespace(content, start, end)
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			chunks = append(chunks, domain.Chunk{
				ID:         fmt.Sprintf("%s-%04d", doc.ID, index),
				Content:    text,
				SourcePath: doc.SourcePath,
				Title:      doc.Title,
				Index:      index,
				CreatedAt:  now,
			})
			index++
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// breakAtWhitespace walks the cut point back to the nearest whitespace
// so words are not split mid-token. Gives up after a quarter chunk and
// cuts hard.
func breakAtWhitespace(content string, start, end int) int {
	limit := start + (end-start)*3/4
	for i := end; i > limit; i-- {
		if content[i-1] == ' ' || content[i-1] == '\n' || content[i-1] == '\t' {
			return i
		}
	}
	return end
}
