package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ssonin/nvstech/internal/interfaces/rest"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	client, err := h.clientService.Create(r.Context(), raw)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", r.URL.Path, client.ID))
	rest.WriteJSON(w, http.StatusCreated, rest.ToClientResponse(client), h.logger)
}

func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.clientService.Get(r.Context(), r.PathValue("clientId"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToClientResponse(client), h.logger)
}
