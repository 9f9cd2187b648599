package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

func TestSplitEmptyDocument(t *testing.T) {
	chunks, err := New().Split(domain.Document{ID: "doc-1"})

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortDocumentIsSingleChunk(t *testing.T) {
	doc := domain.Document{
		ID:         "doc-1",
		SourcePath: "/docs/a.md",
		Title:      "A",
		Content:    "short content",
	}

	chunks, err := New().Split(doc)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1-0000", chunks[0].ID)
	assert.Equal(t, "short content", chunks[0].Content)
	assert.Equal(t, "/docs/a.md", chunks[0].SourcePath)
	assert.Equal(t, "A", chunks[0].Title)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitProducesOverlappingChunks(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "word"
	}
	doc := domain.Document{ID: "doc-1", Content: strings.Join(words, " ")}

	c := New(WithChunkSize(100), WithOverlap(20))
	chunks, err := c.Split(doc)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 100)
		assert.Equal(t, i, chunk.Index)
	}
}

func TestSplitNeverBreaksWords(t *testing.T) {
	doc := domain.Document{
		ID:      "doc-1",
		Content: strings.Repeat("antidisestablishment ", 50),
	}

	c := New(WithChunkSize(100), WithOverlap(0))
	chunks, err := c.Split(doc)

	require.NoError(t, err)
	for _, chunk := range chunks {
		for _, word := range strings.Fields(chunk.Content) {
			assert.Equal(t, "antidisestablishment", word)
		}
	}
}

func TestSplitIDsAreDeterministic(t *testing.T) {
	doc := domain.Document{ID: "doc-1", Content: strings.Repeat("text ", 100)}
	c := New(WithChunkSize(50), WithOverlap(10))

	first, err := c.Split(doc)
	require.NoError(t, err)
	second, err := c.Split(doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestSplitMakesProgressWithLargeOverlap(t *testing.T) {
	doc := domain.Document{ID: "doc-1", Content: strings.Repeat("x", 500)}

	// Overlap equal to chunk size would stall; the constructor clamps it.
	c := New(WithChunkSize(100), WithOverlap(100))
	chunks, err := c.Split(doc)

	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 50)
}

func TestNewClampsOptions(t *testing.T) {
	c := New(WithChunkSize(-1), WithOverlap(-5))

	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}

func TestBreakAtWhitespace(t *testing.T) {
	content := "alpha beta gamma"

	// The cut walks back to the space after "beta".
	assert.Equal(t, 11, breakAtWhitespace(content, 0, 13))

	// No whitespace within the last quarter: hard cut.
	assert.Equal(t, 8, breakAtWhitespace("abcdefghij", 0, 8))
}
