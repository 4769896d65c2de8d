package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ssonin/nvstech/internal/domain"
)

type ClientResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
}

func ToClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID.String(),
		CreatedAt:   c.CreatedAt,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Description: c.Description,
	}
}

type DocumentResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ClientID  string    `json:"client_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
}

func ToDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		CreatedAt: d.CreatedAt,
		ClientID:  d.ClientID.String(),
		Title:     d.Title,
		Content:   d.Content,
	}
}

// IngestResponse carries the outcome discriminator alongside the committed
// record's public fields.
type IngestResponse struct {
	Status   string           `json:"status"`
	Document DocumentResponse `json:"document"`
}

// ToSearchHit flattens a search result into the wire shape: the entity's
// fields plus its type and rank.
func ToSearchHit(r *domain.SearchResult) map[string]any {
	hit := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		hit[k] = v
	}
	hit["type"] = r.Type
	hit["rank"] = r.Rank
	return hit
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
