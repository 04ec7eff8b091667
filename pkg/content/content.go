package content

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadError indicates a content document could not be read or parsed.
// Missing core content is fatal for a playthrough; callers decide severity.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load content %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Store loads immutable JSON documents from a data directory and caches
// them by key. Keys are path-like, without the .json extension, e.g.
// "characters/orlov" or "modules/winter_summit/graph".
type Store struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]json.RawMessage
}

// NewStore creates a content store rooted at dataDir.
func NewStore(dataDir string, logger *slog.Logger) *Store {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &Store{
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[string]json.RawMessage),
	}
}

// Load returns the raw document for key, reading it from disk on first use.
func (s *Store) Load(key string) (json.RawMessage, error) {
	s.mu.Lock()
	if doc, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	path := filepath.Join(s.dataDir, filepath.FromSlash(key)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	if !json.Valid(data) {
		return nil, &LoadError{Key: key, Err: fmt.Errorf("invalid JSON in %s", path)}
	}

	doc := json.RawMessage(data)
	s.mu.Lock()
	s.cache[key] = doc
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("Content loaded", "key", key, "bytes", len(data))
	}
	return doc, nil
}

// LoadInto loads the document for key and unmarshals it into v.
func (s *Store) LoadInto(key string, v any) error {
	doc, err := s.Load(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return &LoadError{Key: key, Err: err}
	}
	return nil
}

// Exists reports whether a document is present on disk without caching it.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	if _, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	path := filepath.Join(s.dataDir, filepath.FromSlash(key)+".json")
	_, err := os.Stat(path)
	return err == nil
}

// List returns the keys of all documents under a directory prefix,
// e.g. List("modules") -> ["modules/winter_summit", ...].
func (s *Store) List(prefix string) ([]string, error) {
	dir := filepath.Join(s.dataDir, filepath.FromSlash(prefix))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &LoadError{Key: prefix, Err: err}
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			keys = append(keys, prefix+"/"+name)
			continue
		}
		if filepath.Ext(name) == ".json" {
			keys = append(keys, prefix+"/"+strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}

// Clear drops all cached documents. Content is otherwise cached for the
// process lifetime.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cache = make(map[string]json.RawMessage)
	s.mu.Unlock()
}
