package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/avelichko/envoy-engine/pkg/engine"
)

// Playthroughs expire after a day of inactivity; each save renews the TTL.
const playthroughTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for playthroughs
// and the filesystem for module content
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Playthrough operations (Redis-backed)

func (r *RedisStorage) SavePlaythrough(ctx context.Context, p *engine.Playthrough) error {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal playthrough", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to marshal playthrough: %w", err)
	}

	key := "playthrough:" + p.ID.String()
	if err := r.client.Set(ctx, key, string(data), playthroughTTL).Err(); err != nil {
		r.logger.Error("Failed to save playthrough", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to save playthrough: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadPlaythrough(ctx context.Context, id uuid.UUID) (*engine.Playthrough, error) {
	key := "playthrough:" + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Playthrough not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load playthrough", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load playthrough: %w", err)
	}

	var p engine.Playthrough
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Error("Failed to unmarshal playthrough", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal playthrough: %w", err)
	}
	return &p, nil
}

func (r *RedisStorage) DeletePlaythrough(ctx context.Context, id uuid.UUID) error {
	key := "playthrough:" + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete playthrough", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete playthrough: %w", err)
	}
	return nil
}

// Module operations (filesystem-backed)

func (r *RedisStorage) ListModules(ctx context.Context) ([]ModuleInfo, error) {
	modulesDir := filepath.Join(r.dataDir, "modules")

	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ModuleInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read modules directory: %w", err)
	}

	modules := make([]ModuleInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info := ModuleInfo{Name: entry.Name()}

		manifestPath := filepath.Join(modulesDir, entry.Name(), "module.json")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			r.logger.Warn("Module has no readable manifest", "module", entry.Name(), "error", err)
			continue
		}
		var manifest engine.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			r.logger.Warn("Module manifest is malformed", "module", entry.Name(), "error", err)
			continue
		}
		info.Title = manifest.Title
		modules = append(modules, info)
	}
	return modules, nil
}
