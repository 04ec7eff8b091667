package services

import (
	"context"
	"sync"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	CompleteFunc func(ctx context.Context, system, user string, maxTokens int) (string, error)
	PingFunc     func(ctx context.Context) error

	// Track calls for testing
	CompleteCalls []CompleteCall
	PingCalls     int

	mu sync.Mutex // protects all fields above
}

type CompleteCall struct {
	System    string
	User      string
	MaxTokens int
}

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		CompleteCalls: make([]CompleteCall, 0),
	}
}

// Complete mocks completion generation
func (m *MockLLM) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls = append(m.CompleteCalls, CompleteCall{
		System:    system,
		User:      user,
		MaxTokens: maxTokens,
	})

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user, maxTokens)
	}
	return `{"response": "Mock response.", "analysis": {"overall_tone": ["neutral"], "detected_stance_towards_russia": "neutral", "cooperativeness": "medium"}}`, nil
}

// Ping mocks the reachability check
func (m *MockLLM) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PingCalls++
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// SetCompleteError sets up the mock to return an error on Complete
func (m *MockLLM) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, system, user string, maxTokens int) (string, error) {
		return "", err
	}
}

// SetPingError sets up the mock to return an error on Ping
func (m *MockLLM) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingFunc = func(ctx context.Context) error {
		return err
	}
}

// Reset clears all call tracking
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompleteCall, 0)
	m.PingCalls = 0
}
