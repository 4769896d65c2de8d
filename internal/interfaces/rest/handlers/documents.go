package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/application/services"
	"github.com/ssonin/nvstech/internal/interfaces/rest"
	"github.com/ssonin/nvstech/internal/schema"
)

const idempotencyKeyHeader = "Idempotency-Key"

func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		rest.WriteError(w, application.NewInvalidInputError(&schema.ValidationError{
			Violations: []schema.Violation{{Field: idempotencyKeyHeader, Constraint: "header is required"}},
		}), h.logger)
		return
	}

	clientID, err := uuid.Parse(r.PathValue("clientId"))
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(&schema.ValidationError{
			Violations: []schema.Violation{{Field: "clientId", Constraint: "must be a valid UUID"}},
		}), h.logger)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	result, err := h.ingestService.Ingest(r.Context(), key, clientID, raw)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	body := rest.IngestResponse{
		Status:   string(result.Outcome),
		Document: rest.ToDocumentResponse(result.Document),
	}

	statusCode := http.StatusOK
	if result.Outcome == services.OutcomeAccepted {
		statusCode = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("%s/%s", r.URL.Path, result.Document.ID))
	}
	rest.WriteJSON(w, statusCode, body, h.logger)
}
