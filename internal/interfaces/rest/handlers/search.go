package handlers

import (
	"net/http"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/interfaces/rest"
	"github.com/ssonin/nvstech/internal/schema"
)

type searchResponse struct {
	Query   string           `json:"query"`
	Results []map[string]any `json:"results"`
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteError(w, application.NewInvalidInputError(&schema.ValidationError{
			Violations: []schema.Violation{{Field: "q", Constraint: "query parameter is required"}},
		}), h.logger)
		return
	}

	results, err := h.searchService.Search(r.Context(), query)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	hits := make([]map[string]any, 0, len(results))
	for _, result := range results {
		hits = append(hits, rest.ToSearchHit(result))
	}

	rest.WriteJSON(w, http.StatusOK, searchResponse{Query: query, Results: hits}, h.logger)
}
