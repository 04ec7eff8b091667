package character

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avelichko/envoy-engine/pkg/content"
)

// NotFoundError indicates no base record and no built-in fallback exists
// for a character id.
type NotFoundError struct {
	CharacterID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("character not found: %s", e.CharacterID)
}

// DataMissingError indicates strict resolution required a base content
// record that is absent. AI dialogue should be disabled for the character.
type DataMissingError struct {
	CharacterID string
}

func (e *DataMissingError) Error() string {
	return fmt.Sprintf("character data missing: %s", e.CharacterID)
}

// fieldAliases maps source-language field names to canonical ones. Content
// records may use either; normalization happens only here, at the load
// boundary.
var fieldAliases = map[string]string{
	"имя":         "name",
	"характер":    "personality",
	"предыстория": "background",
	"мотивация":   "motivations",
	"стиль_речи":  "speech_style",
	"роль":        "role",
}

// fallbackProfiles names the characters for which a minimal profile may be
// synthesized when the backing content is entirely absent.
var fallbackProfiles = map[string]string{
	"orlov":    "Ambassador Orlov",
	"volkova":  "Attaché Volkova",
	"sokolov":  "General Sokolov",
	"minister": "The Foreign Minister",
}

// Resolver merges character base data, localized fields, and AI-persona
// overlays into canonical profiles, caching results per character id.
type Resolver struct {
	store  *content.Store
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Profile
}

// NewResolver creates a profile resolver backed by the given content store.
func NewResolver(store *content.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
		cache:  make(map[string]*Profile),
	}
}

// Resolve returns the canonical profile for characterID, synthesizing a
// minimal fallback when no base record exists. It fails with NotFoundError
// only when there is neither a base record nor a built-in fallback name.
// Results are cached for the process lifetime.
func (r *Resolver) Resolve(characterID string) (*Profile, error) {
	return r.resolve(characterID, false)
}

// ResolveStrict behaves like Resolve but requires the base content record
// to exist, failing with DataMissingError instead of falling back. Used
// once AI dialogue is active for a character.
func (r *Resolver) ResolveStrict(characterID string) (*Profile, error) {
	return r.resolve(characterID, true)
}

func (r *Resolver) resolve(characterID string, strict bool) (*Profile, error) {
	r.mu.Lock()
	if p, ok := r.cache[characterID]; ok {
		r.mu.Unlock()
		if strict && !r.store.Exists("characters/"+characterID) {
			return nil, &DataMissingError{CharacterID: characterID}
		}
		return p, nil
	}
	r.mu.Unlock()

	base, err := r.loadBase(characterID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		if strict {
			return nil, &DataMissingError{CharacterID: characterID}
		}
		name, ok := fallbackProfiles[characterID]
		if !ok {
			return nil, &NotFoundError{CharacterID: characterID}
		}
		if r.logger != nil {
			r.logger.Warn("Synthesizing fallback profile", "character", characterID)
		}
		base = &Record{Name: name}
	}

	profile := &Profile{
		ID:   characterID,
		Name: characterID,
	}
	profile.merge(base)
	profile.merge(r.loadPersona(characterID))
	profile.canonicalize()

	r.mu.Lock()
	r.cache[characterID] = profile
	r.mu.Unlock()

	return profile, nil
}

// IsAllowedInScene reports whether the character's persona declares sceneID
// in its scene scope. Characters without a persona hold no free-text
// dialogues anywhere.
func (r *Resolver) IsAllowedInScene(characterID, sceneID string) (bool, error) {
	profile, err := r.ResolveStrict(characterID)
	if err != nil {
		return false, err
	}
	if profile.Persona == nil {
		return false, nil
	}
	return profile.Persona.AllowsScene(sceneID), nil
}

// ClearCache drops all cached profiles.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]*Profile)
	r.mu.Unlock()
}

// loadBase reads and normalizes the base content record. A missing document
// yields (nil, nil); transport or parse failures propagate.
func (r *Resolver) loadBase(characterID string) (*Record, error) {
	key := "characters/" + characterID
	if !r.store.Exists(key) {
		return nil, nil
	}

	var raw map[string]json.RawMessage
	if err := r.store.LoadInto(key, &raw); err != nil {
		return nil, err
	}
	return normalize(raw)
}

// loadPersona reads the optional AI-persona overlay record. Persona records
// are authored in canonical field names only.
func (r *Resolver) loadPersona(characterID string) *Record {
	key := "personas/" + characterID
	if !r.store.Exists(key) {
		return nil
	}

	var rec Record
	if err := r.store.LoadInto(key, &rec); err != nil {
		if r.logger != nil {
			r.logger.Warn("Skipping unreadable persona record", "character", characterID, "error", err)
		}
		return nil
	}
	return &rec
}

// normalize rewrites localized field names to canonical ones and decodes
// the result into a Record.
func normalize(raw map[string]json.RawMessage) (*Record, error) {
	canonical := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if alias, ok := fieldAliases[k]; ok {
			k = alias
		}
		canonical[k] = v
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.New("malformed character record: " + err.Error())
	}
	return &rec, nil
}
