package handlers

import (
	"net/http"

	"github.com/ssonin/nvstech/internal/interfaces/rest"
)

type healthResponse struct {
	Status    string `json:"status"`
	Embedding string `json:"embedding"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.embedder.Health(r.Context()); err != nil {
		h.logger.Warn("embedding service health check failed", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "degraded",
			Embedding: "unreachable",
		}, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Embedding: "ok",
	}, h.logger)
}
