package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avelichko/envoy-engine/internal/storage"
)

// ModulesHandler lists the installed narrative modules.
type ModulesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewModulesHandler(storage storage.Storage, logger *slog.Logger) *ModulesHandler {
	return &ModulesHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *ModulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	modules, err := h.storage.ListModules(r.Context())
	if err != nil {
		h.logger.Error("Failed to list modules", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list modules"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(modules); err != nil {
		h.logger.Error("Failed to encode modules response", "error", err)
	}
}
