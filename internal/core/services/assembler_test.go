package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

func candidate(id, content string) domain.Candidate {
	return domain.Candidate{Chunk: domain.Chunk{ID: id, Content: content}}
}

func TestAssembleRespectsBudget(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("a", strings.Repeat("a", 40)),
		candidate("b", strings.Repeat("b", 40)),
		candidate("c", strings.Repeat("c", 40)),
	}

	rc := NewAssembler().Assemble(candidates, nil, 100, 0)

	assert.Len(t, rc.Passages, 2)
	assert.LessOrEqual(t, rc.BudgetUsed, 100)
}

func TestAssembleNeverSplitsPassages(t *testing.T) {
	// The second passage overflows and is skipped whole; the smaller
	// third one still fits.
	candidates := []domain.Candidate{
		candidate("a", strings.Repeat("a", 60)),
		candidate("b", strings.Repeat("b", 60)),
		candidate("c", strings.Repeat("c", 30)),
	}

	rc := NewAssembler().Assemble(candidates, nil, 100, 0)

	require.Len(t, rc.Passages, 2)
	assert.Equal(t, 60, len(rc.Passages[0].Text))
	assert.Equal(t, 30, len(rc.Passages[1].Text))
	assert.Equal(t, 90, rc.BudgetUsed)
}

func TestAssembleCapsMemoryFraction(t *testing.T) {
	memory := []domain.Turn{
		{Role: domain.RoleUser, Content: strings.Repeat("m", 15)},
		{Role: domain.RoleUser, Content: strings.Repeat("n", 15)},
	}
	candidates := []domain.Candidate{
		candidate("a", strings.Repeat("a", 50)),
	}

	// 20% of 100 leaves room for only one 15-char memory turn.
	rc := NewAssembler().Assemble(candidates, memory, 100, 0.2)

	memoryCount := 0
	for _, p := range rc.Passages {
		if p.FromMemory {
			memoryCount++
		}
	}
	assert.Equal(t, 1, memoryCount)
	assert.LessOrEqual(t, rc.BudgetUsed, 100)
}

func TestAssembleDeduplicatesByNormalisedText(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("a", "The  Quick Brown Fox"),
		candidate("b", "the quick brown fox"),
	}

	rc := NewAssembler().Assemble(candidates, nil, 1000, 0)

	assert.Len(t, rc.Passages, 1)
}

func TestAssembleMemoryDuplicateSuppressesCandidate(t *testing.T) {
	memory := []domain.Turn{{Role: domain.RoleUser, Content: "shared passage"}}
	candidates := []domain.Candidate{candidate("a", "shared passage")}

	rc := NewAssembler().Assemble(candidates, memory, 1000, 0.5)

	require.Len(t, rc.Passages, 1)
	assert.True(t, rc.Passages[0].FromMemory)
}

func TestAssembleCarriesProvenance(t *testing.T) {
	candidates := []domain.Candidate{
		{Chunk: domain.Chunk{
			ID:         "a",
			Content:    "some text",
			SourcePath: "/docs/topology.md",
			Title:      "Topology",
			Page:       3,
			Index:      1,
		}},
	}

	rc := NewAssembler().Assemble(candidates, nil, 1000, 0)

	require.Len(t, rc.Passages, 1)
	p := rc.Passages[0]
	assert.Equal(t, "/docs/topology.md", p.SourcePath)
	assert.Equal(t, "Topology", p.Title)
	assert.Equal(t, 3, p.Page)
	assert.False(t, p.FromMemory)
}

func TestAssembleZeroBudget(t *testing.T) {
	rc := NewAssembler().Assemble([]domain.Candidate{candidate("a", "text")}, nil, 0, 0.2)

	assert.True(t, rc.Empty())
	assert.Equal(t, domain.SourceNone, rc.Source)
}
