package services

import (
	"fmt"
	"sync"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/core/ports/driving"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Ensure Settings implements the interface.
var _ driving.SettingsService = (*Settings)(nil)

// Settings manages application settings: defaults, persisted overrides,
// and validated runtime updates. Reads return a value snapshot, so a
// query holding one never observes a concurrent update.
type Settings struct {
	mu      sync.RWMutex
	current domain.AppSettings
	store   driven.ConfigStore // optional; nil means in-memory only
}

// NewSettings creates a settings service, overlaying persisted values
// on top of the defaults. The store is optional (can be nil).
func NewSettings(store driven.ConfigStore) *Settings {
	s := &Settings{
		current: domain.DefaultAppSettings(),
		store:   store,
	}
	if store != nil {
		s.overlay(store)
	}
	return s
}

// overlay applies persisted configuration on top of the defaults.
// Unknown or invalid values are ignored so the settings always remain
// usable.
func (s *Settings) overlay(store driven.ConfigStore) {
	if v := store.GetString("llm.provider"); v != "" {
		if p := domain.AIProvider(v); p.IsValid() {
			s.current.LLM.Provider = p
		} else {
			logger.Warn("Ignoring invalid llm.provider %q", v)
		}
	}
	if v := store.GetString("llm.model"); v != "" {
		s.current.LLM.Model = v
	}
	if v := store.GetString("llm.base_url"); v != "" {
		s.current.LLM.BaseURL = v
	}
	if v := store.GetString("llm.api_key"); v != "" {
		s.current.LLM.APIKey = v
	}

	if v := store.GetString("embedding.provider"); v != "" {
		if p := domain.AIProvider(v); p.IsValid() {
			s.current.Embedding.Provider = p
		}
	}
	if v := store.GetString("embedding.model"); v != "" {
		s.current.Embedding.Model = v
	}
	if v := store.GetString("embedding.base_url"); v != "" {
		s.current.Embedding.BaseURL = v
	}
	if v := store.GetString("embedding.api_key"); v != "" {
		s.current.Embedding.APIKey = v
	}

	if v := store.GetInt("retrieval.top_k"); v > 0 {
		s.current.Retrieval.TopK = v
	}
	if v := store.GetInt("retrieval.final_k"); v > 0 {
		s.current.Retrieval.FinalK = v
	}
	if v := store.GetFloat("retrieval.similarity_threshold"); v > 0 {
		s.current.Retrieval.SimilarityThreshold = v
	}
	if v := store.GetFloat("retrieval.dense_weight"); v > 0 {
		s.current.Retrieval.DenseWeight = v
	}
	if v := store.GetFloat("retrieval.lexical_weight"); v > 0 {
		s.current.Retrieval.LexicalWeight = v
	}
	if v := store.GetInt("retrieval.query_variants"); v > 0 {
		s.current.Retrieval.QueryVariants = v
	}

	if _, ok := store.Get("fallback.use_web"); ok {
		s.current.Fallback.UseWeb = store.GetBool("fallback.use_web")
	}
	if v := store.GetInt("fallback.web_results"); v > 0 {
		s.current.Fallback.WebResults = v
	}
	if _, ok := store.Get("fallback.cache_web_results"); ok {
		s.current.Fallback.CacheWebResults = store.GetBool("fallback.cache_web_results")
	}

	if _, ok := store.Get("memory.long_term"); ok {
		s.current.Memory.LongTerm = store.GetBool("memory.long_term")
	}
	if v := store.GetInt("memory.buffer_size"); v > 0 {
		s.current.Memory.BufferSize = v
	}

	if v := store.GetInt("context.token_budget"); v > 0 {
		s.current.Context.TokenBudget = v
	}
	if v := store.GetFloat("context.memory_fraction"); v > 0 {
		s.current.Context.MemoryFraction = v
	}
}

// Get returns a consistent snapshot of the current settings.
func (s *Settings) Get() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetLLMProvider switches the LLM provider by name. Unknown names and
// providers missing credentials are rejected here, at the configuration
// boundary, so the orchestrator never sees an invalid provider.
func (s *Settings) SetLLMProvider(name string) error {
	provider := domain.AIProvider(name)
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q (expected one of %v)",
			domain.ErrInvalidProvider, name, domain.AllLLMProviders())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.LLM
	next.Provider = provider
	if model, ok := domain.DefaultLLMModels()[provider]; ok {
		next.Model = model
	}
	if s.store != nil {
		// Per-provider credentials live under llm.<provider>.api_key so
		// switching back and forth never loses a key.
		if key := s.store.GetString("llm." + name + ".api_key"); key != "" {
			next.APIKey = key
		}
		if url := s.store.GetString("llm." + name + ".base_url"); url != "" {
			next.BaseURL = url
		}
	}

	if provider.RequiresAPIKey() && next.APIKey == "" {
		return fmt.Errorf("%w: provider %q needs an API key (set llm.%s.api_key)",
			domain.ErrMissingCredential, name, name)
	}

	s.current.LLM = next
	s.persist("llm.provider", name)
	s.persist("llm.model", next.Model)
	logger.Info("LLM provider set to %s", provider.Description())
	return nil
}

// SetLongTermMemory toggles long-term conversation memory.
func (s *Settings) SetLongTermMemory(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Memory.LongTerm = enabled
	s.persist("memory.long_term", enabled)
	return nil
}

// SetRetrievalParams updates retrieval tuning parameters.
func (s *Settings) SetRetrievalParams(params domain.RetrievalSettings) error {
	if params.TopK <= 0 || params.FinalK <= 0 {
		return fmt.Errorf("%w: top_k and final_k must be positive", domain.ErrInvalidInput)
	}
	if params.SimilarityThreshold < 0 || params.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in [0,1]", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Retrieval = params
	s.persist("retrieval.top_k", params.TopK)
	s.persist("retrieval.final_k", params.FinalK)
	s.persist("retrieval.similarity_threshold", params.SimilarityThreshold)
	return nil
}

// SetFallbackPolicy updates the fallback policy.
func (s *Settings) SetFallbackPolicy(policy domain.FallbackPolicy) error {
	if policy.WebResults < 0 {
		return fmt.Errorf("%w: web_results must not be negative", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Fallback = policy
	s.persist("fallback.use_web", policy.UseWeb)
	s.persist("fallback.web_results", policy.WebResults)
	s.persist("fallback.cache_web_results", policy.CacheWebResults)
	return nil
}

// persist writes a key to the config store when one is attached.
// Caller holds the settings lock.
func (s *Settings) persist(key string, value any) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(key, value); err != nil {
		logger.Warn("Persisting %s failed: %v", key, err)
	}
}
