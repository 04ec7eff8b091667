package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/avelichko/envoy-engine/internal/storage"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
	"github.com/avelichko/envoy-engine/pkg/engine"
	"github.com/avelichko/envoy-engine/pkg/narrative"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// PlaythroughResponse is the standard envelope for playthrough operations.
type PlaythroughResponse struct {
	Playthrough *engine.Playthrough    `json:"playthrough"`
	Scene       *engine.ScenePayload   `json:"scene"`
	Delta       *diplomacy.EffectDelta `json:"delta,omitempty"`
}

// ChoiceRequest selects one authored choice at the current node.
type ChoiceRequest struct {
	ChoiceID string `json:"choice_id"`
}

// DialogueRequest carries one free-text player utterance.
type DialogueRequest struct {
	Message string `json:"message"`
}

// DialogueResponse is one completed free-text exchange.
type DialogueResponse struct {
	Playthrough *engine.Playthrough    `json:"playthrough"`
	Result      *engine.DialogueResult `json:"result"`
}

type PlaythroughHandler struct {
	engine  *engine.Engine
	storage storage.Storage
	logger  *slog.Logger
}

func NewPlaythroughHandler(eng *engine.Engine, storage storage.Storage, logger *slog.Logger) *PlaythroughHandler {
	return &PlaythroughHandler{
		engine:  eng,
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for playthrough operations
// Routes:
// POST /v1/playthrough                - Create a new playthrough
// GET /v1/playthrough/{id}            - Read a playthrough
// DELETE /v1/playthrough/{id}         - Delete a playthrough
// POST /v1/playthrough/{id}/choice    - Execute an authored choice
// POST /v1/playthrough/{id}/dialogue  - Hold one free-text exchange
// POST /v1/playthrough/{id}/skip      - Advance past the current node
// POST /v1/playthrough/{id}/back      - Undo the last transition
func (h *PlaythroughHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/playthrough"), "/")
	parts := strings.SplitN(path, "/", 2)

	var id uuid.UUID
	var action string
	var err error

	if parts[0] != "" {
		id, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid playthrough ID", "id", parts[0], "error", err)
			h.writeError(w, http.StatusBadRequest, "Invalid playthrough ID format")
			return
		}
	}
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case r.Method == http.MethodPost && id == uuid.Nil && action == "":
		h.handleCreate(w, r)

	case r.Method == http.MethodGet && id != uuid.Nil && action == "":
		h.handleRead(w, r, id)

	case r.Method == http.MethodDelete && id != uuid.Nil && action == "":
		h.handleDelete(w, r, id)

	case r.Method == http.MethodPost && id != uuid.Nil:
		switch action {
		case "choice":
			h.handleChoice(w, r, id)
		case "dialogue":
			h.handleDialogue(w, r, id)
		case "skip":
			h.handleSkip(w, r, id)
		case "back":
			h.handleBack(w, r, id)
		default:
			h.writeError(w, http.StatusNotFound, "Unknown playthrough action: "+action)
		}

	default:
		h.logger.Warn("Method not allowed for playthrough endpoint", "method", r.Method, "path", r.URL.Path)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *PlaythroughHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := h.engine.NewPlaythrough()
	if err := h.storage.SavePlaythrough(r.Context(), p); err != nil {
		h.logger.Error("Failed to save playthrough", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save playthrough")
		return
	}

	h.logger.Info("Playthrough created", "uuid", p.ID, "module", p.Module)
	h.writeScene(w, http.StatusCreated, p, nil)
}

func (h *PlaythroughHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	p := h.load(w, r, id)
	if p == nil {
		return
	}
	h.writeScene(w, http.StatusOK, p, nil)
}

func (h *PlaythroughHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeletePlaythrough(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete playthrough")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaythroughHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChoiceID == "" {
		h.writeError(w, http.StatusBadRequest, "Request body must include choice_id")
		return
	}

	p := h.load(w, r, id)
	if p == nil {
		return
	}

	_, delta, err := h.engine.Choose(p, req.ChoiceID)
	if err != nil {
		var noTransition *narrative.NoTransitionError
		if errors.As(err, &noTransition) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Choice failed", "uuid", id, "choice", req.ChoiceID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Choice failed")
		return
	}

	if err := h.storage.SavePlaythrough(r.Context(), p); err != nil {
		h.logger.Error("Failed to save playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save playthrough")
		return
	}
	h.writeScene(w, http.StatusOK, p, delta)
}

func (h *PlaythroughHandler) handleDialogue(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req DialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "Request body must include message")
		return
	}

	p := h.load(w, r, id)
	if p == nil {
		return
	}

	result, err := h.engine.Converse(r.Context(), p, req.Message)
	if err != nil {
		var unavailable *engine.DialogueUnavailableError
		switch {
		case errors.Is(err, engine.ErrNoDialogue):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &unavailable):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Dialogue failed", "uuid", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "Dialogue failed")
		}
		return
	}

	if err := h.storage.SavePlaythrough(r.Context(), p); err != nil {
		h.logger.Error("Failed to save playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save playthrough")
		return
	}

	h.writeJSON(w, http.StatusOK, DialogueResponse{
		Playthrough: p,
		Result:      result,
	})
}

func (h *PlaythroughHandler) handleSkip(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	p := h.load(w, r, id)
	if p == nil {
		return
	}

	if _, err := h.engine.Advance(p); err != nil {
		var noTransition *narrative.NoTransitionError
		if errors.As(err, &noTransition) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Skip failed", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Skip failed")
		return
	}

	if err := h.storage.SavePlaythrough(r.Context(), p); err != nil {
		h.logger.Error("Failed to save playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save playthrough")
		return
	}
	h.writeScene(w, http.StatusOK, p, nil)
}

func (h *PlaythroughHandler) handleBack(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	p := h.load(w, r, id)
	if p == nil {
		return
	}

	if _, err := h.engine.Back(p); err != nil {
		if errors.Is(err, narrative.ErrEmptyHistory) {
			h.writeError(w, http.StatusConflict, "Nothing to go back to")
			return
		}
		h.logger.Error("Back failed", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Back failed")
		return
	}

	if err := h.storage.SavePlaythrough(r.Context(), p); err != nil {
		h.logger.Error("Failed to save playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save playthrough")
		return
	}
	h.writeScene(w, http.StatusOK, p, nil)
}

// load fetches and validates the playthrough, writing the error response
// itself when it returns nil.
func (h *PlaythroughHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) *engine.Playthrough {
	p, err := h.storage.LoadPlaythrough(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load playthrough", "uuid", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load playthrough")
		return nil
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, "Playthrough not found")
		return nil
	}
	if err := h.engine.Resume(p); err != nil {
		h.logger.Error("Playthrough failed validation", "uuid", id, "error", err)
		h.writeError(w, http.StatusConflict, err.Error())
		return nil
	}
	return p
}

func (h *PlaythroughHandler) writeScene(w http.ResponseWriter, status int, p *engine.Playthrough, delta *diplomacy.EffectDelta) {
	scene, err := h.engine.CurrentScene(p)
	if err != nil {
		h.logger.Error("Failed to assemble scene payload", "uuid", p.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to assemble scene")
		return
	}
	h.writeJSON(w, status, PlaythroughResponse{
		Playthrough: p,
		Scene:       scene,
		Delta:       delta,
	})
}

func (h *PlaythroughHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *PlaythroughHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
