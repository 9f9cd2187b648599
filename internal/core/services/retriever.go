package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Retriever performs hybrid retrieval: multi-query expansion, dense
// similarity search, and lexical term-overlap scoring, merged into a
// single ranked candidate set.
type Retriever struct {
	store    driven.ChunkStore
	embedder *EmbeddingGateway
	llm      driven.LLMService // optional, enables multi-query expansion
}

// NewRetriever creates a retriever. The llm parameter is optional (can
// be nil); without it, only the original query is searched.
func NewRetriever(store driven.ChunkStore, embedder *EmbeddingGateway, llm driven.LLMService) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		llm:      llm,
	}
}

// variantResult carries one variant's search outcome across the fan-in.
type variantResult struct {
	dense   []driven.ChunkHit
	keyword []driven.ChunkHit
	err     error
}

// Retrieve returns ranked candidates for the query.
//
// Guarantees:
//   - at most one candidate per chunk id (duplicates merged, max score kept)
//   - every candidate's combined score meets cfg.SimilarityThreshold
//   - ordering is combined score descending, then recency, then
//     ingestion order
//
// Returns domain.ErrNoRelevantResults when thresholding empties the set
// and domain.ErrRetrievalUnavailable when the store or embedder is down.
func (r *Retriever) Retrieve(ctx context.Context, query string, cfg domain.RetrievalSettings) ([]domain.Candidate, error) {
	logger.Section("Hybrid Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	variants := r.expandQuery(ctx, query, cfg.QueryVariants)
	logger.Debug("Query variants: %d (including original)", len(variants))

	embeddings, err := r.embedder.EmbedBatch(ctx, variants)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}

	// Variant searches are independent and read-only, so fan out.
	results := make([]variantResult, len(variants))
	var wg sync.WaitGroup
	for i := range variants {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.searchVariant(ctx, variants[i], embeddings[i], topK)
		}(i)
	}
	wg.Wait()

	merged, err := r.mergeVariants(query, results)
	if err != nil {
		return nil, err
	}

	candidates := r.rank(merged, cfg)
	if len(candidates) == 0 {
		logger.Info("All candidates below threshold %.2f", cfg.SimilarityThreshold)
		return nil, domain.ErrNoRelevantResults
	}

	logger.Info("Retrieved %d candidates", len(candidates))
	return candidates, nil
}

// expandQuery returns the original query plus up to n LLM paraphrases.
// Expansion failures degrade to the original query alone.
func (r *Retriever) expandQuery(ctx context.Context, query string, n int) []string {
	variants := []string{query}
	if r.llm == nil || n <= 0 {
		return variants
	}

	expanded, err := r.llm.ExpandQuery(ctx, query, n)
	if err != nil {
		logger.Warn("Query expansion failed: %v (using original query)", err)
		return variants
	}

	seen := map[string]bool{normaliseText(query): true}
	for _, v := range expanded {
		v = strings.TrimSpace(v)
		if v == "" || seen[normaliseText(v)] {
			continue
		}
		seen[normaliseText(v)] = true
		variants = append(variants, v)
		logger.Debug("Variant: %q", v)
	}
	return variants
}

// searchVariant runs the dense and keyword searches for one variant.
func (r *Retriever) searchVariant(ctx context.Context, variant string, embedding []float32, topK int) variantResult {
	var res variantResult

	res.dense, res.err = r.store.Search(ctx, embedding, topK, "")
	if res.err != nil {
		logger.Warn("Dense search failed for variant %q: %v", variant, res.err)
	}

	keyword, err := r.store.Keyword(ctx, variant, topK, "")
	if err != nil {
		// Keyword search is best-effort; dense results alone suffice.
		logger.Warn("Keyword search failed for variant %q: %v", variant, err)
	} else {
		res.keyword = keyword
	}

	return res
}

// rawScores holds per-chunk raw scores before normalisation.
type rawScores struct {
	chunk   domain.Chunk
	dense   float64
	lexical float64
}

// mergeVariants folds per-variant hits into one map keyed by chunk id,
// keeping the maximum score per search kind.
func (r *Retriever) mergeVariants(query string, results []variantResult) (map[string]*rawScores, error) {
	merged := make(map[string]*rawScores)
	succeeded := false

	record := func(hit driven.ChunkHit) *rawScores {
		rs, ok := merged[hit.Chunk.ID]
		if !ok {
			rs = &rawScores{chunk: hit.Chunk}
			merged[hit.Chunk.ID] = rs
		}
		return rs
	}

	for _, res := range results {
		if res.err == nil {
			succeeded = true
		}
		for _, hit := range res.dense {
			rs := record(hit)
			if hit.Score > rs.dense {
				rs.dense = hit.Score
			}
		}
		for _, hit := range res.keyword {
			rs := record(hit)
			if hit.Score > rs.lexical {
				rs.lexical = hit.Score
			}
		}
	}

	if !succeeded {
		var firstErr error
		for _, res := range results {
			if res.err != nil {
				firstErr = res.err
				break
			}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, firstErr)
	}

	// Lexical scoring always considers the original query's term overlap
	// against every candidate, so dense-only hits still get a lexical
	// score without a second store round-trip.
	for _, rs := range merged {
		if overlap := lexicalOverlap(query, rs.chunk.Content); overlap > rs.lexical {
			rs.lexical = overlap
		}
	}

	return merged, nil
}

// rank normalises, combines, thresholds, and orders the merged scores.
func (r *Retriever) rank(merged map[string]*rawScores, cfg domain.RetrievalSettings) []domain.Candidate {
	all := make([]*rawScores, 0, len(merged))
	for _, rs := range merged {
		all = append(all, rs)
	}

	denseNorm := normaliser(all, func(rs *rawScores) float64 { return rs.dense })
	lexNorm := normaliser(all, func(rs *rawScores) float64 { return rs.lexical })

	wd, wl := cfg.DenseWeight, cfg.LexicalWeight
	if wd == 0 && wl == 0 {
		wd, wl = 0.7, 0.3
	}

	candidates := make([]domain.Candidate, 0, len(all))
	for _, rs := range all {
		c := domain.Candidate{
			Chunk:   rs.chunk,
			Dense:   denseNorm(rs.dense),
			Lexical: lexNorm(rs.lexical),
		}
		c.Combined = wd*c.Dense + wl*c.Lexical
		if c.Combined < cfg.SimilarityThreshold {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Combined != candidates[j].Combined {
			return candidates[i].Combined > candidates[j].Combined
		}
		ci, cj := candidates[i].Chunk.CreatedAt, candidates[j].Chunk.CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj) // newer preferred
		}
		return candidates[i].Chunk.Seq < candidates[j].Chunk.Seq
	})

	if cfg.FinalK > 0 && len(candidates) > cfg.FinalK {
		candidates = candidates[:cfg.FinalK]
	}

	return candidates
}

// normaliser returns a min-max normalisation function over the scores
// extracted from all entries. Degenerate ranges map every positive
// score to 1 so thresholding stays monotonic.
func normaliser(all []*rawScores, extract func(*rawScores) float64) func(float64) float64 {
	if len(all) == 0 {
		return func(float64) float64 { return 0 }
	}

	minScore, maxScore := extract(all[0]), extract(all[0])
	for _, rs := range all[1:] {
		s := extract(rs)
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	if maxScore == minScore {
		return func(s float64) float64 {
			if s > 0 {
				return 1
			}
			return 0
		}
	}

	spread := maxScore - minScore
	return func(s float64) float64 {
		return (s - minScore) / spread
	}
}

// lexicalOverlap scores content by the fraction of query terms it
// contains. Returns 0-1.
func lexicalOverlap(query, content string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	contentLower := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		if strings.Contains(contentLower, term) {
			matched++
		}
	}

	return float64(matched) / float64(len(terms))
}

// normaliseText lowercases and collapses whitespace for comparisons.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
