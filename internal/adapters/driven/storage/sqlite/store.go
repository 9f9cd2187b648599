package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sage-labs/sage-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// maxKeywordTerms caps how many query terms feed the LIKE filter.
const maxKeywordTerms = 8

// Store is a SQLite-backed chunk store. Vectors are stored as BLOBs and
// scored in Go; SQLite only narrows by namespace.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sage/data/sage.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sage", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sage.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies any unapplied .up.sql migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert stores or replaces chunks. New chunks get the next sequence
// number; replaced chunks keep the one they were assigned on insert.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var maxSeq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM chunks").Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading max sequence: %w", err)
	}

	for i := range chunks {
		chunk := &chunks[i]
		maxSeq++
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, namespace, content, embedding, source_path, title, url, page, position, seq, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content = excluded.content,
				embedding = excluded.embedding,
				source_path = excluded.source_path,
				title = excluded.title,
				url = excluded.url,
				page = excluded.page,
				position = excluded.position,
				created_at = excluded.created_at
		`, chunk.ID, chunk.Namespace, chunk.Content, float32SliceToBytes(chunk.Embedding),
			chunk.SourcePath, chunk.Title, chunk.URL, chunk.Page, chunk.Index, maxSeq, chunk.CreatedAt); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search finds the topK nearest chunks to the query vector by cosine
// similarity. SQLite narrows by namespace; similarity is computed here.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]driven.ChunkHit, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, content, embedding, source_path, title, url, page, position, seq, created_at
		FROM chunks
		WHERE namespace = ? AND embedding IS NOT NULL AND length(embedding) > 0
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.ChunkHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		score := cosineSimilarity(vector, chunk.Embedding)
		if score <= 0 {
			continue
		}
		hits = append(hits, driven.ChunkHit{Chunk: *chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Keyword performs a term-match search over chunk content. Scores are
// the fraction of query terms present in the chunk.
func (s *Store) Keyword(ctx context.Context, query string, topK int, namespace string) ([]driven.ChunkHit, error) {
	terms := keywordTerms(query)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	// Narrow in SQL to rows matching at least one term, score in Go.
	conditions := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	args = append(args, namespace)
	for i, term := range terms {
		conditions[i] = "lower(content) LIKE ?"
		args = append(args, "%"+term+"%")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, content, embedding, source_path, title, url, page, position, seq, created_at
		FROM chunks
		WHERE namespace = ? AND (`+strings.Join(conditions, " OR ")+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.ChunkHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		content := strings.ToLower(chunk.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, driven.ChunkHit{
			Chunk: *chunk,
			Score: float64(matched) / float64(len(terms)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Recent returns the newest chunks in a namespace, most recent first.
func (s *Store) Recent(ctx context.Context, namespace string, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, content, embedding, source_path, title, url, page, position, seq, created_at
		FROM chunks
		WHERE namespace = ?
		ORDER BY seq DESC
		LIMIT ?
	`, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// DeleteNamespace removes all chunks in a namespace.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE namespace = ?", namespace); err != nil {
		return fmt.Errorf("deleting namespace %q: %w", namespace, err)
	}
	return nil
}

// ==================== Helper Functions ====================

// keywordTerms lowercases and splits a query, keeping at most
// maxKeywordTerms distinct terms.
func keywordTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	var terms []string
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]`)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == maxKeywordTerms {
			break
		}
	}
	return terms
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 on dimension mismatch or zero-magnitude input.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChunk scans a chunk from a query row set.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := rows.Scan(&chunk.ID, &chunk.Namespace, &chunk.Content, &embeddingBlob,
		&chunk.SourcePath, &chunk.Title, &chunk.URL, &chunk.Page, &chunk.Index,
		&chunk.Seq, &chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}
