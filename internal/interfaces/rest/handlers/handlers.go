// Package handlers maps the HTTP surface onto the orchestration services.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/application/services"
)

const apiV1 = "/api/v1"

type Handlers struct {
	clientService *services.ClientService
	ingestService *services.IngestService
	searchService *services.SearchService
	embedder      application.EmbeddingClient
	logger        *slog.Logger
}

func NewHandlers(
	clientService *services.ClientService,
	ingestService *services.IngestService,
	searchService *services.SearchService,
	embedder application.EmbeddingClient,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		clientService: clientService,
		ingestService: ingestService,
		searchService: searchService,
		embedder:      embedder,
		logger:        logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+apiV1+"/clients", h.CreateClient)
	mux.HandleFunc("GET "+apiV1+"/clients/{clientId}", h.GetClient)
	mux.HandleFunc("POST "+apiV1+"/clients/{clientId}/documents", h.CreateDocument)
	mux.HandleFunc("GET "+apiV1+"/search", h.Search)
	mux.HandleFunc("GET /health", h.Health)
}
