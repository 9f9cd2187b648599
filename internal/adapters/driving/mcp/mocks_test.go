package mcp

import (
	"context"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driving"
)

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	answer   *domain.Answer
	report   *driving.IngestReport
	err      error
	sessions []string
	provider string
	enabled  bool
}

func (m *mockAssistantService) Ask(_ context.Context, _ string, sessionID string) (*domain.Answer, error) {
	m.sessions = append(m.sessions, sessionID)
	return m.answer, m.err
}

func (m *mockAssistantService) Ingest(_ context.Context, _ string) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockAssistantService) SetProvider(_ context.Context, name string) error {
	if m.err != nil {
		return m.err
	}
	m.provider = name
	return nil
}

func (m *mockAssistantService) MemoryToggle(_ context.Context, enabled bool) error {
	if m.err != nil {
		return m.err
	}
	m.enabled = enabled
	return nil
}

// mockMemoryService is a mock implementation of driving.MemoryService.
type mockMemoryService struct {
	turns    []domain.Turn
	exported []byte
	err      error
}

func (m *mockMemoryService) Recall(_ context.Context, _, _ string, _ int) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockMemoryService) Clear(_ context.Context, _ string) error {
	return m.err
}

func (m *mockMemoryService) Export(_ context.Context, _ string) ([]byte, error) {
	return m.exported, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() domain.AppSettings {
	return m.settings
}

func (m *mockSettingsService) SetLLMProvider(_ string) error {
	return m.err
}

func (m *mockSettingsService) SetLongTermMemory(_ bool) error {
	return m.err
}

func (m *mockSettingsService) SetRetrievalParams(_ domain.RetrievalSettings) error {
	return m.err
}

func (m *mockSettingsService) SetFallbackPolicy(_ domain.FallbackPolicy) error {
	return m.err
}
