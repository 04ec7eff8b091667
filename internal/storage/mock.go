package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/avelichko/envoy-engine/pkg/engine"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu           sync.RWMutex
	playthroughs map[uuid.UUID]*engine.Playthrough
	modules      []ModuleInfo
	pingError    error
	saveError    error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		playthroughs: make(map[uuid.UUID]*engine.Playthrough),
		modules:      []ModuleInfo{},
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetModules configures the module listing
func (m *MockStorage) SetModules(modules []ModuleInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = modules
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SavePlaythrough mocks saving a playthrough
func (m *MockStorage) SavePlaythrough(ctx context.Context, p *engine.Playthrough) error {
	if p == nil {
		return errors.New("playthrough cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.playthroughs[p.ID] = p
	return nil
}

// LoadPlaythrough mocks loading a playthrough
func (m *MockStorage) LoadPlaythrough(ctx context.Context, id uuid.UUID) (*engine.Playthrough, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playthroughs[id], nil
}

// DeletePlaythrough mocks deleting a playthrough
func (m *MockStorage) DeletePlaythrough(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.playthroughs, id)
	return nil
}

// ListModules mocks module discovery
func (m *MockStorage) ListModules(ctx context.Context) ([]ModuleInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modules, nil
}
