package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/avelichko/envoy-engine/pkg/engine"
)

// ModuleInfo is one installed narrative module, as listed to clients.
type ModuleInfo struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Storage defines the interface for playthrough persistence and module
// discovery. Playthroughs live in Redis; module content lives on disk.
type Storage interface {
	// Ping tests the backing connection
	Ping(ctx context.Context) error

	// Close closes the backing connection
	Close() error

	// SavePlaythrough persists a playthrough under its UUID
	SavePlaythrough(ctx context.Context, p *engine.Playthrough) error

	// LoadPlaythrough retrieves a playthrough by UUID
	// Returns nil if the playthrough doesn't exist
	LoadPlaythrough(ctx context.Context, id uuid.UUID) (*engine.Playthrough, error)

	// DeletePlaythrough removes a playthrough by UUID
	DeletePlaythrough(ctx context.Context, id uuid.UUID) error

	// ListModules returns the installed narrative modules
	ListModules(ctx context.Context) ([]ModuleInfo, error)
}
