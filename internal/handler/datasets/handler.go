// Package datasets exposes the dataset listing endpoint.
package datasets

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sqlchat/sqlchat/internal/dataset"
)

// Handler serves dataset metadata.
type Handler struct {
	registry *dataset.Registry
}

// New creates the datasets handler.
func New(registry *dataset.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes registers the dataset routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/datasets", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	infos := h.registry.List()
	if infos == nil {
		infos = []dataset.Info{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"datasets": infos})
}
