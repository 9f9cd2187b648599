package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// conversationNamespace scopes a session's persisted turns in the store.
func conversationNamespace(sessionID string) string {
	return "conversation:" + sessionID
}

// Memory holds conversation history as two collaborating structures: a
// bounded FIFO buffer per session for O(1) recent-history access, and an
// optional long-term store of embedded turns searchable by similarity.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*session
	store    driven.ChunkStore
	embedder *EmbeddingGateway
}

// session is one conversation's short-term state. Appends are serialized
// by the session mutex to preserve turn order.
type session struct {
	mu     sync.Mutex
	turns  []domain.Turn
	loaded bool  // persisted turns restored into the buffer
	seq    int64 // per-session counter for persisted turn ids
}

// NewMemory creates a conversation memory backed by the given store.
func NewMemory(store driven.ChunkStore, embedder *EmbeddingGateway) *Memory {
	return &Memory{
		sessions: make(map[string]*session),
		store:    store,
		embedder: embedder,
	}
}

// session returns the session state, creating it on first use.
func (m *Memory) session(sessionID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{}
		m.sessions[sessionID] = s
	}
	return s
}

// Append adds a turn to the session buffer, evicting the oldest turn
// when the buffer is full. With long-term memory enabled the turn is
// also embedded and persisted so it survives restarts.
func (m *Memory) Append(ctx context.Context, sessionID string, turn domain.Turn, cfg domain.MemorySettings) error {
	if !turn.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, turn.Role)
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.restoreLocked(ctx, sessionID, s, cfg)

	if cfg.LongTerm {
		if err := m.persistLocked(ctx, sessionID, s, &turn); err != nil {
			// Long-term persistence is best-effort; the buffer still
			// carries the turn for this process lifetime.
			logger.Warn("Persisting turn failed: %v", err)
		}
	}

	s.turns = append(s.turns, turn)
	if size := bufferSize(cfg); len(s.turns) > size {
		s.turns = s.turns[len(s.turns)-size:]
	}

	return nil
}

// persistLocked embeds the turn and upserts it under the session's
// conversation namespace. Caller holds the session lock.
func (m *Memory) persistLocked(ctx context.Context, sessionID string, s *session, turn *domain.Turn) error {
	embedding, err := m.embedder.Embed(ctx, turn.Content)
	if err != nil {
		return fmt.Errorf("embed turn: %w", err)
	}
	turn.Embedding = embedding

	s.seq++
	chunk := domain.Chunk{
		ID:        fmt.Sprintf("%s-turn-%d-%d", sessionID, turn.Timestamp.UnixNano(), s.seq),
		Namespace: conversationNamespace(sessionID),
		Content:   turn.Content,
		Embedding: embedding,
		Title:     string(turn.Role),
		CreatedAt: turn.Timestamp,
	}

	if err := m.store.Upsert(ctx, []domain.Chunk{chunk}); err != nil {
		return fmt.Errorf("upsert turn: %w", err)
	}
	return nil
}

// restoreLocked rebuilds the buffer from persisted turns the first time
// a session is touched with long-term memory enabled. Touches while
// long-term memory is off leave the restore pending so enabling it
// later still recovers prior turns. Caller holds the session lock.
func (m *Memory) restoreLocked(ctx context.Context, sessionID string, s *session, cfg domain.MemorySettings) {
	if s.loaded || !cfg.LongTerm {
		return
	}
	s.loaded = true

	chunks, err := m.store.Recent(ctx, conversationNamespace(sessionID), bufferSize(cfg))
	if err != nil {
		logger.Warn("Restoring session %q failed: %v", sessionID, err)
		return
	}
	if len(chunks) == 0 {
		return
	}

	// Recent returns newest first; the buffer is oldest first. Persisted
	// turns predate anything buffered in this process, so they go in front.
	restored := make([]domain.Turn, 0, len(chunks))
	for i := len(chunks) - 1; i >= 0; i-- {
		restored = append(restored, turnFromChunk(chunks[i]))
	}
	s.turns = append(restored, s.turns...)
	if size := bufferSize(cfg); len(s.turns) > size {
		s.turns = s.turns[len(s.turns)-size:]
	}

	logger.Debug("Restored %d turns for session %q", len(restored), sessionID)
}

// Recall returns prior turns relevant to the query, most relevant
// first. With long-term memory it is a dense similarity search scoped
// to the session namespace; otherwise the most recent buffered turns.
func (m *Memory) Recall(ctx context.Context, sessionID, query string, limit int, cfg domain.MemorySettings) ([]domain.Turn, error) {
	if limit <= 0 {
		limit = 5
	}

	if !cfg.LongTerm {
		return m.RecentTurns(ctx, sessionID, limit, cfg), nil
	}

	embedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	hits, err := m.store.Search(ctx, embedding, limit, conversationNamespace(sessionID))
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	turns := make([]domain.Turn, 0, len(hits))
	for _, hit := range hits {
		turns = append(turns, turnFromChunk(hit.Chunk))
	}
	return turns, nil
}

// RecentTurns returns up to limit buffered turns, oldest first.
// This is the short-term history fed to answer synthesis.
func (m *Memory) RecentTurns(ctx context.Context, sessionID string, limit int, cfg domain.MemorySettings) []domain.Turn {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.restoreLocked(ctx, sessionID, s, cfg)

	turns := s.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear wipes the session buffer and any persisted turns.
func (m *Memory) Clear(ctx context.Context, sessionID string) error {
	s := m.session(sessionID)
	s.mu.Lock()
	s.turns = nil
	s.loaded = true
	s.mu.Unlock()

	if err := m.store.DeleteNamespace(ctx, conversationNamespace(sessionID)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Export serialises the session's turns as JSON, restoring persisted
// turns first when long-term memory is enabled.
func (m *Memory) Export(ctx context.Context, sessionID string, cfg domain.MemorySettings) ([]byte, error) {
	turns := m.RecentTurns(ctx, sessionID, 0, cfg)

	type exportTurn struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	}

	out := make([]exportTurn, len(turns))
	for i, t := range turns {
		out[i] = exportTurn{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
		}
	}

	return json.MarshalIndent(out, "", "  ")
}

// turnFromChunk reconstructs a turn from its persisted form.
func turnFromChunk(chunk domain.Chunk) domain.Turn {
	role := domain.Role(chunk.Title)
	if !role.IsValid() {
		role = domain.RoleUser
	}
	return domain.Turn{
		Role:      role,
		Content:   chunk.Content,
		Timestamp: chunk.CreatedAt,
		Embedding: chunk.Embedding,
	}
}

// bufferSize applies the default when the configured size is unset.
func bufferSize(cfg domain.MemorySettings) int {
	if cfg.BufferSize > 0 {
		return cfg.BufferSize
	}
	return 20
}
