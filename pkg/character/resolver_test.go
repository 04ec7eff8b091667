package character

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/envoy-engine/pkg/content"
)

func newTestStore(t *testing.T, docs map[string]string) *content.Store {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range docs {
		path := filepath.Join(dir, filepath.FromSlash(rel)+".json")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return content.NewStore(dir, nil)
}

func TestResolveMergesBaseAndPersona(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/orlov": `{
			"имя": "Ambassador Orlov",
			"предыстория": "Thirty years in the foreign service.",
			"стиль_речи": "measured, never raises his voice",
			"роль": "ambassador"
		}`,
		"personas/orlov": `{
			"persona": {
				"tone": "wary",
				"scene_scope": ["embassy_hall"],
				"alignment_behaviors": [
					{"condition": {"min_traits": {"independence": 3}}, "bias": "Speak more candidly."}
				]
			}
		}`,
	})

	r := NewResolver(store, nil)
	p, err := r.Resolve("orlov")
	require.NoError(t, err)

	assert.Equal(t, "Ambassador Orlov", p.Name)
	assert.Equal(t, "Thirty years in the foreign service.", p.Background)
	assert.Equal(t, "ambassador", p.Role)
	// No explicit personality in any record: speech style stands in.
	assert.Equal(t, "measured, never raises his voice", p.Personality)
	require.NotNil(t, p.Persona)
	assert.Equal(t, "wary", p.Persona.Tone)
	assert.True(t, p.Persona.AllowsScene("embassy_hall"))
	assert.False(t, p.Persona.AllowsScene("war_room"))
}

func TestResolveBaseOnly(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/volkova": `{"name": "Attaché Volkova", "speech_style": "clipped and precise"}`,
	})

	r := NewResolver(store, nil)
	p, err := r.Resolve("volkova")
	require.NoError(t, err)

	assert.Equal(t, "Attaché Volkova", p.Name)
	assert.Equal(t, "clipped and precise", p.Personality)
	assert.Nil(t, p.Persona)
}

func TestResolveDefaultsApplyLast(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/orlov":   `{"name": "Ambassador Orlov"}`,
		"characters/volkova": `{"name": "Attaché Volkova", "speech_style": "clipped and precise"}`,
	})
	r := NewResolver(store, nil)

	// Records supplying neither personality nor speech style get the
	// generic defaults.
	p, err := r.Resolve("orlov")
	require.NoError(t, err)
	assert.Equal(t, "formal and diplomatic", p.Personality)
	assert.Equal(t, "a career official in the diplomatic service", p.Background)

	// A supplied speech style always beats the default personality.
	p, err = r.Resolve("volkova")
	require.NoError(t, err)
	assert.Equal(t, "clipped and precise", p.Personality)
}

func TestResolvePersonaOverridesBase(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/sokolov": `{"name": "Old Name", "характер": "gruff"}`,
		"personas/sokolov":   `{"name": "General Sokolov", "personality": "coldly courteous"}`,
	})

	r := NewResolver(store, nil)
	p, err := r.Resolve("sokolov")
	require.NoError(t, err)

	assert.Equal(t, "General Sokolov", p.Name)
	assert.Equal(t, "coldly courteous", p.Personality)
}

func TestResolveFallbackProfile(t *testing.T) {
	store := newTestStore(t, nil)
	r := NewResolver(store, nil)

	p, err := r.Resolve("minister")
	require.NoError(t, err)
	assert.Equal(t, "The Foreign Minister", p.Name)
	assert.Equal(t, "formal and diplomatic", p.Personality)
	assert.NotEmpty(t, p.Background)
}

func TestResolveNotFound(t *testing.T) {
	store := newTestStore(t, nil)
	r := NewResolver(store, nil)

	_, err := r.Resolve("nobody")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nobody", notFound.CharacterID)
}

func TestResolveStrict(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/volkova": `{"name": "Attaché Volkova"}`,
	})
	r := NewResolver(store, nil)

	_, err := r.ResolveStrict("volkova")
	require.NoError(t, err)

	// Fallback-only characters fail strict resolution.
	_, err = r.ResolveStrict("minister")
	var missing *DataMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "minister", missing.CharacterID)
}

func TestResolveCaching(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/orlov": `{"name": "Ambassador Orlov"}`,
	})
	r := NewResolver(store, nil)

	first, err := r.Resolve("orlov")
	require.NoError(t, err)
	second, err := r.Resolve("orlov")
	require.NoError(t, err)
	assert.Same(t, first, second)

	r.ClearCache()
	third, err := r.Resolve("orlov")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestIsAllowedInScene(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"characters/orlov":   `{"name": "Ambassador Orlov"}`,
		"personas/orlov":     `{"persona": {"scene_scope": ["embassy_hall", "reception"]}}`,
		"characters/volkova": `{"name": "Attaché Volkova"}`,
	})
	r := NewResolver(store, nil)

	ok, err := r.IsAllowedInScene("orlov", "reception")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAllowedInScene("orlov", "war_room")
	require.NoError(t, err)
	assert.False(t, ok)

	// No persona at all: never allowed.
	ok, err = r.IsAllowedInScene("volkova", "reception")
	require.NoError(t, err)
	assert.False(t, ok)
}
