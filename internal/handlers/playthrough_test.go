package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/envoy-engine/internal/storage"
	"github.com/avelichko/envoy-engine/pkg/content"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
	"github.com/avelichko/envoy-engine/pkg/engine"
)

type scriptedLLM struct {
	reply string
}

func (s *scriptedLLM) Complete(_ context.Context, _, _ string, _ int) (string, error) {
	return s.reply, nil
}

func writeDoc(t *testing.T, dir, key, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(key)+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func testEngine(t *testing.T, llm engine.LLMClient) *engine.Engine {
	t.Helper()
	dir := t.TempDir()

	writeDoc(t, dir, "modules/winter_summit/module", `{
		"name": "winter_summit",
		"title": "The Winter Summit",
		"factions": ["hardliners"],
		"traits": ["loyalty"],
		"characters": ["orlov"]
	}`)
	writeDoc(t, dir, "modules/winter_summit/graph", `{
		"entry": "intro",
		"exit": "end",
		"nodes": {
			"intro": {
				"id": "intro",
				"type": "scene",
				"choices": [{"id": "press", "next": "hub", "text": "Press the issue"}]
			},
			"hub": {
				"id": "hub",
				"type": "hub",
				"transitions": [{"to": "end"}],
				"ai_dialogue": {"character_id": "orlov"}
			},
			"end": {"id": "end", "type": "system"}
		}
	}`)
	writeDoc(t, dir, "modules/winter_summit/diplomacy/intro", `{
		"choices": [{"id": "press", "effects": {"factions": {"hardliners": 5}}}]
	}`)
	writeDoc(t, dir, "modules/winter_summit/diplomacy/hub", `{
		"ai_rules": [{"condition": {"overall_tone": ["loyal"]}, "effects": {"npc_opinions": {"orlov": 4}}}]
	}`)
	writeDoc(t, dir, "characters/orlov", `{"name": "Ambassador Orlov", "характер": "measured"}`)
	writeDoc(t, dir, "personas/orlov", `{"persona": {"tone": "wary", "scene_scope": ["hub"]}}`)

	cfg := engine.Config{
		Module:    "winter_summit",
		AIEnabled: llm != nil,
		MaxTokens: 600,
		Guard:     diplomacy.DefaultGuardConfig(),
	}
	eng, err := engine.New(cfg, content.NewStore(dir, nil), llm, testLogger())
	require.NoError(t, err)
	return eng
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodePlaythrough(t *testing.T, rec *httptest.ResponseRecorder) PlaythroughResponse {
	t.Helper()
	var resp PlaythroughResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPlaythroughCreate(t *testing.T) {
	handler := NewPlaythroughHandler(testEngine(t, nil), storage.NewMockStorage(), testLogger())

	rec := postJSON(t, handler, "/v1/playthrough", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodePlaythrough(t, rec)
	assert.Equal(t, "winter_summit", resp.Playthrough.Module)
	assert.Equal(t, "intro", resp.Playthrough.Current)
	require.NotNil(t, resp.Scene)
	assert.Len(t, resp.Scene.Choices, 1)
}

func TestPlaythroughReadNotFound(t *testing.T) {
	handler := NewPlaythroughHandler(testEngine(t, nil), storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/playthrough/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaythroughInvalidID(t *testing.T) {
	handler := NewPlaythroughHandler(testEngine(t, nil), storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/playthrough/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaythroughChoice(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/choice", ChoiceRequest{ChoiceID: "press"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodePlaythrough(t, rec)
	assert.Equal(t, "hub", resp.Playthrough.Current)
	assert.Equal(t, 5, resp.Playthrough.State.Factions["hardliners"])
	require.NotNil(t, resp.Delta)
	assert.Equal(t, 5, resp.Delta.Factions["hardliners"])
	assert.True(t, resp.Scene.CanTalk)
}

func TestPlaythroughChoiceUnknown(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/choice", ChoiceRequest{ChoiceID: "bribe"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaythroughChoiceMissingBody(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/choice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaythroughDialogue(t *testing.T) {
	llm := &scriptedLLM{reply: `{"response": "Your loyalty is noted.", "analysis": {"overall_tone": ["loyal"], "detected_stance_towards_russia": "supportive", "cooperativeness": "high"}}`}
	eng := testEngine(t, llm)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	_, _, err := eng.Choose(p, "press")
	require.NoError(t, err)
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/dialogue", DialogueRequest{Message: "I serve the motherland."})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DialogueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Your loyalty is noted.", resp.Result.Response)
	assert.Equal(t, 4, resp.Playthrough.State.NPCOpinions["orlov"])

	// Mutation was persisted, not just returned.
	saved, err := st.LoadPlaythrough(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.State.NPCOpinions["orlov"])
}

func TestPlaythroughDialogueOutsideHub(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/dialogue", DialogueRequest{Message: "Hello?"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaythroughSkipAndBack(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	_, _, err := eng.Choose(p, "press")
	require.NoError(t, err)
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/skip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodePlaythrough(t, rec)
	assert.Equal(t, "end", resp.Playthrough.Current)
	assert.True(t, resp.Scene.Finished)

	rec = postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodePlaythrough(t, rec)
	assert.Equal(t, "hub", resp.Playthrough.Current)
}

func TestPlaythroughBackAtStart(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	rec := postJSON(t, handler, "/v1/playthrough/"+p.ID.String()+"/back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaythroughDelete(t *testing.T) {
	eng := testEngine(t, nil)
	st := storage.NewMockStorage()
	handler := NewPlaythroughHandler(eng, st, testLogger())

	p := eng.NewPlaythrough()
	require.NoError(t, st.SavePlaythrough(context.Background(), p))

	req := httptest.NewRequest(http.MethodDelete, "/v1/playthrough/"+p.ID.String(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	saved, err := st.LoadPlaythrough(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestModulesHandler(t *testing.T) {
	st := storage.NewMockStorage()
	st.SetModules([]storage.ModuleInfo{{Name: "winter_summit", Title: "The Winter Summit"}})
	handler := NewModulesHandler(st, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/modules", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var modules []storage.ModuleInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	require.Len(t, modules, 1)
	assert.Equal(t, "winter_summit", modules[0].Name)
}
